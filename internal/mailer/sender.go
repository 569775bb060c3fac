package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// Sender delivers one rendered message. The production deployment
// plugs in an SMTP or provider-backed implementation.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes messages to the log instead of delivering them.
// Used in development and in tests.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("email (log sender)")
	return nil
}
