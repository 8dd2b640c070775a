// Package alert delivers operator notifications. Delivery is fire-and-forget:
// a failed send is logged and never returned to the caller.
package alert

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier sends one alert. An empty subject selects the notifier's default.
type Notifier interface {
	Notify(ctx context.Context, subject, message string)
}

// Problem formats a per-recording problem report.
func Problem(path, reason string) string {
	return fmt.Sprintf("Problem with transcript for:\n\n%s\n\nReason: %s", path, reason)
}

// Deviation formats the alert for a weekend whose homilies diverge.
func Deviation(groupKey, summary, details string) (subject, message string) {
	subject = fmt.Sprintf("Homily Deviations for Weekend %s", groupKey)
	message = fmt.Sprintf("Deviations detected:\n\n%s\n\nDetails:\n%s", summary, details)
	return subject, message
}

// Log writes alerts to a structured logger. Used when email is disabled.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier. A nil logger means slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify implements Notifier.
func (l *Log) Notify(ctx context.Context, subject, message string) {
	l.logger.WarnContext(ctx, "alert",
		slog.String("subject", subject),
		slog.String("message", message),
	)
}

var _ Notifier = (*Log)(nil)
