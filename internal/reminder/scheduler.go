package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskminder/internal/domain"
	"taskminder/internal/redact"
)

// Payload is the reminder content captured when a task is scheduled.
// It is deliberately a copy: later task mutation or deletion does not change
// what an already-registered reminder will send.
type Payload struct {
	TaskID      uuid.UUID
	Recipient   string
	Title       string
	Description string
	Deadline    time.Time
}

// stopTimer cancels a registered timer. It reports whether the callback was
// prevented from running.
type stopTimer func() bool

// startTimer registers f to run once after d. The default implementation is
// time.AfterFunc; tests substitute a manual source.
type startTimer func(d time.Duration, f func()) stopTimer

// Scheduler registers one-shot reminder timers held only in process memory.
//
// Reminders move Pending -> Fired on the timer callback, or Pending ->
// Discarded on Stop. There is no persistence: a crash or restart silently
// drops all pending reminders, and there is no cancellation API — deleting a
// task does not cancel its reminder, which will still fire with the payload
// captured at scheduling time.
type Scheduler struct {
	notifier Notifier
	leadTime time.Duration
	logger   *slog.Logger

	timeFunc func() time.Time
	start    startTimer

	mu      sync.Mutex
	pending map[uuid.UUID]stopTimer
	stopped bool
}

// NewScheduler creates a Scheduler that fires each reminder leadTime before
// its task's deadline, delivering through the given notifier.
func NewScheduler(notifier Notifier, leadTime time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Scheduler")
	}
	if leadTime <= 0 {
		leadTime = domain.MinDeadlineLead
	}

	return &Scheduler{
		notifier: notifier,
		leadTime: leadTime,
		logger:   logger.With(slog.String("component", "reminder_scheduler")),
		timeFunc: time.Now,
		start: func(d time.Duration, f func()) stopTimer {
			return time.AfterFunc(d, f).Stop
		},
		pending: make(map[uuid.UUID]stopTimer),
	}
}

// Schedule registers a one-shot reminder for the task at
// deadline − leadTime. If that moment is already in the past (a task created
// with barely more than the minimum lead plus processing delay), the reminder
// fires immediately rather than being dropped.
//
// Timers for different tasks are independent and unordered; two reminders may
// fire concurrently. Notifier failures are logged and swallowed — they never
// propagate to the caller.
func (s *Scheduler) Schedule(task *domain.Task) {
	payload := Payload{
		TaskID:      task.ID,
		Recipient:   task.OwnerEmail,
		Title:       task.Title,
		Description: task.Description,
		Deadline:    task.Deadline,
	}

	fireTime := task.Deadline.Add(-s.leadTime)
	delay := fireTime.Sub(s.timeFunc())
	if delay < 0 {
		delay = 0 // Clamp to "now", never drop
	}

	reminderID := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.logger.Warn("scheduler stopped, discarding reminder",
			"task_id", payload.TaskID)
		return
	}

	s.pending[reminderID] = s.start(delay, func() {
		s.fire(reminderID, payload)
	})

	s.logger.Debug("reminder scheduled",
		"task_id", payload.TaskID,
		"fire_in", delay)
}

// fire delivers the payload exactly once. The timer is not reused, not
// recurring, and not rescheduled on failure.
func (s *Scheduler) fire(reminderID uuid.UUID, payload Payload) {
	s.mu.Lock()
	delete(s.pending, reminderID)
	s.mu.Unlock()

	subject, body := payload.render()

	ctx := context.Background()
	if err := s.notifier.Send(ctx, payload.Recipient, subject, body); err != nil {
		// Absorbed by design: a failed notification never reaches the
		// request that created the task, and is never retried.
		s.logger.Error("failed to send reminder",
			"task_id", payload.TaskID,
			"error", redact.Error(fmt.Errorf("%w: %v", ErrNotifier, err)))
		return
	}

	s.logger.Info("reminder sent", "task_id", payload.TaskID)
}

// Stop discards all pending reminders without firing them. Reminders whose
// callback is already running are not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, stop := range s.pending {
		stop()
		delete(s.pending, id)
	}

	s.logger.Info("reminder scheduler stopped")
}

// PendingCount reports the number of reminders not yet fired or discarded.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (p Payload) render() (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s", p.Title)

	body = fmt.Sprintf("Your task %q is due at %s.",
		p.Title, p.Deadline.Format(time.RFC1123))
	if p.Description != "" {
		body += "\n\n" + p.Description
	}

	return subject, body
}
