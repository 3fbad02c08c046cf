// Package notify delivers outbound email and SMS through per-channel
// actors. Provider integrations live behind the sender interfaces; the
// defaults only log, since real delivery SDKs are external collaborators.
package notify

import (
	"context"

	"go.uber.org/zap"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, recipient, body string) error
}

// LogEmailSender stands in for a real provider in development.
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s *LogEmailSender) SendEmail(_ context.Context, recipient, subject, body string) error {
	s.Logger.Info("email sent",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.Int("body_len", len(body)))
	return nil
}

type LogSMSSender struct {
	Logger *zap.Logger
}

func (s *LogSMSSender) SendSMS(_ context.Context, recipient, body string) error {
	s.Logger.Info("sms sent",
		zap.String("recipient", recipient),
		zap.Int("body_len", len(body)))
	return nil
}
