package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common task validation errors.
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrTitleTooLong    = errors.New("title cannot exceed 200 characters")
	ErrEmptyOwner      = errors.New("task owner cannot be empty")
	ErrEmptyOwnerEmail = errors.New("task owner email cannot be empty")
	ErrMissingDeadline = errors.New("deadline is required")
	ErrDeadlineInPast  = errors.New("deadline must be in the future")
	ErrDeadlineTooSoon = errors.New("deadline must be at least one hour away")
)

// MaxTitleLength is the upper bound on task titles.
const MaxTitleLength = 200

// MinDeadlineLead is the minimum distance between the clock and a task's
// deadline at creation or update time. It matches the reminder lead time:
// a task closer than this would have its reminder due before it exists.
const MinDeadlineLead = time.Hour

// Task represents a unit of work with a deadline, owned by a single user.
//
// OwnerEmail is denormalized from the owning user at creation time so that
// the reminder can be delivered independently of later user mutation.
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    time.Time `json:"deadline"`
	OwnerEmail  string    `json:"-"` // Delivery address only, not exposed in reads
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user.
// Returns a validation error if the title is empty or the deadline is
// missing, in the past, or less than MinDeadlineLead away.
func NewTask(userID uuid.UUID, ownerEmail, title, description string, deadline time.Time) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Deadline:    deadline.UTC(),
		OwnerEmail:  ownerEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.ValidateAt(now); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task against the current clock.
func (t *Task) Validate() error {
	return t.ValidateAt(time.Now().UTC())
}

// ValidateAt checks if the Task has valid data relative to the given time.
// The deadline rules are re-applied on every mutation, not just creation.
func (t *Task) ValidateAt(now time.Time) error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyOwner
	}

	if t.OwnerEmail == "" {
		return ErrEmptyOwnerEmail
	}

	if t.Title == "" {
		return fmt.Errorf("%w: %v", ErrValidation, ErrEmptyTitle)
	}

	if len(t.Title) > MaxTitleLength {
		return fmt.Errorf("%w: %v", ErrValidation, ErrTitleTooLong)
	}

	if t.Deadline.IsZero() {
		return fmt.Errorf("%w: %v", ErrValidation, ErrMissingDeadline)
	}

	if !t.Deadline.After(now) {
		return fmt.Errorf("%w: %v", ErrValidation, ErrDeadlineInPast)
	}

	if t.Deadline.Sub(now) < MinDeadlineLead {
		return fmt.Errorf("%w: %v", ErrValidation, ErrDeadlineTooSoon)
	}

	return nil
}

// Expired reports whether the task's deadline has elapsed relative to now.
// Expired tasks are removed lazily the next time the owner's list is read.
func (t *Task) Expired(now time.Time) bool {
	return !t.Deadline.After(now)
}
