package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskminder/internal/domain"
	"taskminder/internal/platform/logger"
	"taskminder/internal/store"
)

// TaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type TaskStore struct {
	db       *sql.DB
	timeFunc func() time.Time // Injectable for lazy-expiry tests
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. It accepts a database connection that should be initialized and
// managed by the caller.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{
		db:       db,
		timeFunc: time.Now,
	}
}

// Create implements store.TaskStore.Create.
// Returns store.ErrUserNotFound if the owning user does not resolve.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, deadline, owner_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Deadline,
		task.OwnerEmail,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrUserNotFound, err)
		}
		return MapError(err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, user_id, title, description, deadline, owner_email, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var task domain.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Deadline,
		&task.OwnerEmail,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	return &task, nil
}

// ListForUser implements store.TaskStore.ListForUser.
//
// Tasks whose deadline has elapsed are deleted before the remaining rows are
// read (lazy expiry). The two statements are separate round-trips, not a
// transaction: a concurrent create for the same user can land between them,
// which is acceptable under the documented concurrency model.
func (s *TaskStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc().UTC()

	sweep := `DELETE FROM tasks WHERE user_id = $1 AND deadline <= $2`
	res, err := s.db.ExecContext(ctx, sweep, userID, now)
	if err != nil {
		return nil, MapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Debug("lazily expired tasks",
			"user_id", userID,
			"expired_count", n)
	}

	query := `
		SELECT id, user_id, title, description, deadline, owner_email, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close task rows", "error", err)
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Description,
			&task.Deadline,
			&task.OwnerEmail,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, deadline = $3, updated_at = $4
		WHERE id = $5
	`

	res, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Deadline,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return MapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// Delete implements store.TaskStore.Delete.
// Deleting a non-existent ID is not an error.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}

	return nil
}
