package notify

import "errors"

var (
	// ErrInvalidMessage indicates a message missing a sender, recipient or attachment.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrNoMessageID indicates the provider accepted the request without returning a message id.
	ErrNoMessageID = errors.New("no message id in response")
)
