package store

import (
	"context"

	"github.com/google/uuid"

	"taskminder/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// The task must already be validated; the store enforces referential
	// integrity and returns ErrUserNotFound if the owning user does not
	// resolve.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListForUser returns all tasks owned by the given user, in store-native
	// order (no ordering invariant).
	//
	// As an observable side effect of this read, any task of this user whose
	// deadline has already elapsed is deleted before the list is returned
	// (lazy expiry). The delete and the subsequent read are not atomic with
	// respect to concurrent creates for the same user.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update replaces the mutable fields of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Deleting a non-existent ID is not an error (idempotent).
	// Deleting a task does NOT cancel a reminder already scheduled for it.
	Delete(ctx context.Context, id uuid.UUID) error
}
