// Package logging is the structured logger handed to every client component.
// The session manager, the callback receiver and the CLI all log through
// Logger so tests can swap in Discard.
package logging

import (
	"context"
	"log/slog"
)

// Logger takes a context first and alternating key/value args after the
// message:
//
//	log.Info(ctx, "auth state changed", "from", from, "to", to)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}

// Err is the attribute every component uses to attach a failure.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}
