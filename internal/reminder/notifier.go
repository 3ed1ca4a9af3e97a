// Package reminder schedules one-shot deadline reminders and hands them to a
// Notifier when they come due.
package reminder

import (
	"context"
	"errors"
)

// ErrNotifier wraps transport failures reported by a Notifier implementation.
// The scheduler absorbs these; they never reach the caller that scheduled
// the reminder.
var ErrNotifier = errors.New("notifier failure")

// Notifier delivers a reminder to a recipient. Implementations report
// transport failures as errors; they must not retry internally.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
