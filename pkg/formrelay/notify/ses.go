package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// SendRawEmailAPI is the subset of the SES client used by Sender.
type SendRawEmailAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Sender delivers messages through SES.
type Sender struct {
	client SendRawEmailAPI
	logger *zap.Logger
}

// NewSender creates a Sender.
func NewSender(client SendRawEmailAPI, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{client: client, logger: logger}
}

// NewFromConfig creates a Sender backed by an SES client built from cfg.
// A non-empty endpoint overrides the service endpoint.
func NewFromConfig(cfg aws.Config, endpoint string, logger *zap.Logger) *Sender {
	client := ses.NewFromConfig(cfg, func(o *ses.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewSender(client, logger)
}

// Send delivers m and returns the provider message id.
func (s *Sender) Send(ctx context.Context, m Message) (string, error) {
	raw, err := BuildRawMessage(m)
	if err != nil {
		s.logger.Error("build message failed", zap.Error(err))
		return "", err
	}
	_, to, _ := m.addresses()
	destinations := make([]string, len(to))
	for i, a := range to {
		destinations[i] = a.Address
	}

	out, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.From),
		Destinations: destinations,
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		s.logger.Error("send raw email failed", zap.Strings("to", m.To), zap.Error(err))
		return "", fmt.Errorf("send raw email: %w", err)
	}

	id := aws.ToString(out.MessageId)
	if id == "" {
		s.logger.Error("send raw email returned no message id", zap.Strings("to", m.To))
		return "", ErrNoMessageID
	}
	return id, nil
}
