package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskminder/internal/domain"
)

// recordingNotifier captures every Send call.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []sendCall
	err   error
}

type sendCall struct {
	recipient string
	subject   string
	body      string
}

func (n *recordingNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sendCall{recipient, subject, body})
	return n.err
}

func (n *recordingNotifier) sent() []sendCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sendCall(nil), n.calls...)
}

// manualTimers is a startTimer implementation under test control: timers
// never fire on their own, only via fire().
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

func (m *manualTimers) start(d time.Duration, f func()) stopTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	m.timers = append(m.timers, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (m *manualTimers) fire(i int) {
	m.mu.Lock()
	t := m.timers[i]
	m.mu.Unlock()
	if !t.stopped {
		t.f()
	}
}

func newTestScheduler(t *testing.T, notifier Notifier, now time.Time) (*Scheduler, *manualTimers) {
	t.Helper()
	timers := &manualTimers{}
	s := NewScheduler(notifier, time.Hour, slog.Default())
	s.timeFunc = func() time.Time { return now }
	s.start = timers.start
	return s, timers
}

func testTask(t *testing.T, title string, deadline time.Time) *domain.Task {
	t.Helper()
	return &domain.Task{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Title:       title,
		Description: "monthly payment",
		Deadline:    deadline,
		OwnerEmail:  "owner@example.com",
	}
}

func TestScheduleFireTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		deadline  time.Time
		wantDelay time.Duration
	}{
		{
			name:      "two hours out fires one hour before deadline",
			deadline:  now.Add(2 * time.Hour),
			wantDelay: time.Hour,
		},
		{
			name:      "61 minutes out fires in one minute",
			deadline:  now.Add(61 * time.Minute),
			wantDelay: time.Minute,
		},
		{
			name:      "past fire time is clamped to immediate",
			deadline:  now.Add(30 * time.Minute),
			wantDelay: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			notifier := &recordingNotifier{}
			s, timers := newTestScheduler(t, notifier, now)

			s.Schedule(testTask(t, "Pay rent", tt.deadline))

			require.Len(t, timers.timers, 1)
			assert.Equal(t, tt.wantDelay, timers.timers[0].delay)
			assert.Equal(t, 1, s.PendingCount())
		})
	}
}

func TestFireDeliversCapturedPayload(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	s, timers := newTestScheduler(t, notifier, now)

	task := testTask(t, "Pay rent", now.Add(2*time.Hour))
	s.Schedule(task)

	// Mutating the task after scheduling must not change the reminder.
	task.Title = "renamed"
	task.OwnerEmail = "other@example.com"

	timers.fire(0)

	calls := notifier.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, "owner@example.com", calls[0].recipient)
	assert.Contains(t, calls[0].subject, "Pay rent")
	assert.Contains(t, calls[0].body, "monthly payment")
	assert.Equal(t, 0, s.PendingCount(), "fired reminder is discarded")
}

func TestNotifierFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{err: errors.New("smtp: connection refused")}
	s, timers := newTestScheduler(t, notifier, now)

	s.Schedule(testTask(t, "Pay rent", now.Add(2*time.Hour)))
	timers.fire(0)

	// Exactly one attempt, no retry, no reschedule.
	assert.Len(t, notifier.sent(), 1)
	assert.Equal(t, 0, s.PendingCount())
}

func TestStopDiscardsPendingReminders(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	s, timers := newTestScheduler(t, notifier, now)

	s.Schedule(testTask(t, "Pay rent", now.Add(2*time.Hour)))
	s.Schedule(testTask(t, "Water plants", now.Add(3*time.Hour)))
	require.Equal(t, 2, s.PendingCount())

	s.Stop()

	assert.Equal(t, 0, s.PendingCount())
	for _, timer := range timers.timers {
		assert.True(t, timer.stopped)
	}
	assert.Empty(t, notifier.sent(), "discarded reminders never fire")

	// Scheduling after Stop is a no-op.
	s.Schedule(testTask(t, "Late", now.Add(2*time.Hour)))
	assert.Equal(t, 0, s.PendingCount())
}

func TestScheduleUsesRealTimerByDefault(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	s := NewScheduler(notifier, time.Hour, slog.Default())

	// Deadline below the lead time: fire time is in the past, so the
	// reminder fires immediately on a real timer.
	task := testTask(t, "Pay rent", time.Now().Add(30*time.Minute))
	s.Schedule(task)

	assert.Eventually(t, func() bool {
		return len(notifier.sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
