package storage

import "errors"

var (
	// ErrEmptyObject indicates the object exists but has no content.
	ErrEmptyObject = errors.New("downloaded object is empty")
	// ErrMissingCredentials indicates no AWS credentials could be resolved.
	ErrMissingCredentials = errors.New("credentials not available")
	// ErrObjectNotFound indicates the bucket has no object under the key.
	ErrObjectNotFound = errors.New("object not found")
)
