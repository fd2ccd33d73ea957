// Package notify delivers one-time codes to users.
package notify

import (
	"context"
	"log/slog"
)

// Notifier sends a short message to an email address
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Log writes messages to the logger instead of delivering them.
// Used in development so codes can be read from the server output.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Send logs the message
func (n *Log) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

var _ Notifier = (*Log)(nil)
