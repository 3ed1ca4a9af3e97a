// Package service contains the application services that orchestrate stores,
// scheduling and notification around the domain entities.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskminder/internal/domain"
	"taskminder/internal/platform/logger"
	"taskminder/internal/store"
)

// ReminderScheduler is the slice of the reminder scheduler the task service
// needs: registration only. There is deliberately no cancellation — deleting
// or editing a task leaves any already-registered reminder in place.
type ReminderScheduler interface {
	Schedule(task *domain.Task)
}

// TaskUpdate carries the explicit set of fields an edit may change.
// Nil fields are left untouched; validation is re-applied to the result.
type TaskUpdate struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

// TaskService implements the task lifecycle: creation (with reminder
// registration), listing with lazy expiry, editing and deletion, all scoped
// to the owning user.
type TaskService struct {
	taskStore store.TaskStore
	userStore store.UserStore
	scheduler ReminderScheduler
	logger    *slog.Logger
}

// NewTaskService creates a TaskService with the given dependencies.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	scheduler ReminderScheduler,
	log *slog.Logger,
) (*TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if userStore == nil {
		return nil, fmt.Errorf("user store cannot be nil")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &TaskService{
		taskStore: taskStore,
		userStore: userStore,
		scheduler: scheduler,
		logger:    log.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask validates and persists a new task for the given owner, then
// registers its reminder. The owner's email is captured on the task at this
// point so reminder delivery is independent of later user mutation.
//
// Returns store.ErrUserNotFound if the owner does not resolve, or a
// domain validation error for a bad title/deadline.
func (s *TaskService) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	deadline time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	owner, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	task, err := domain.NewTask(userID, owner.Email, title, description, deadline)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, err
	}

	// Reminder registration is in-memory only and cannot fail; any later
	// delivery failure is absorbed inside the scheduler.
	s.scheduler.Schedule(task)

	log.Info("task created",
		"task_id", task.ID,
		"user_id", userID,
		"deadline", task.Deadline)

	return task, nil
}

// ListTasks returns the user's tasks. Expired tasks are removed by the store
// as a side effect of this read (lazy expiry), so the result never contains a
// task whose deadline has elapsed.
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return s.taskStore.ListForUser(ctx, userID)
}

// GetTask returns a single task owned by the given user.
// A task owned by someone else is reported as store.ErrTaskNotFound rather
// than revealing its existence.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}

	return task, nil
}

// UpdateTask applies the explicit field set of upd to the task and
// re-validates before persisting. The reminder registered at creation is NOT
// rescheduled: it fires with the originally captured payload.
func (s *TaskService) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	upd TaskUpdate,
) (*domain.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Deadline != nil {
		task.Deadline = upd.Deadline.UTC()
	}
	task.UpdatedAt = time.Now().UTC()

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask removes the user's task. Deleting a task that does not exist is
// not an error (idempotent). The pending reminder, if any, is not cancelled
// and will still fire with the payload captured at creation.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil
		}
		return err
	}
	if task.UserID != userID {
		return store.ErrTaskNotFound
	}

	return s.taskStore.Delete(ctx, taskID)
}
