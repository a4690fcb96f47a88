package services

import (
	"context"
	"errors"
	"time"

	"yangbot/database"
	"yangbot/model"
	"yangbot/timeutil"
)

var (
	ErrPastDate          = errors.New("date is already in the past")
	ErrNotifyAfterExpire = errors.New("notify date is after expire date")
)

// TaskService validates and applies task lifecycle transitions. All
// validation happens before any write, so a rejected candidate leaves the
// stored task unchanged.
type TaskService struct {
	store database.TaskStore
	now   func() time.Time
}

func NewTaskService(store database.TaskStore) *TaskService {
	return &TaskService{store: store, now: timeutil.Now}
}

// CreateTask inserts a new task with no dates set. If the store write fails
// the caller must not assume a task exists.
func (s *TaskService) CreateTask(ctx context.Context, message, sourceID, notifiedID string) (string, error) {
	task := model.Task{
		Message:    message,
		SourceID:   sourceID,
		NotifiedID: notifiedID,
		IsNotified: false,
	}
	return s.store.Create(ctx, task)
}

// SetExpireDate sets the task due time. The notify time defaults to the same
// instant; SetNotifyDate can move it earlier afterwards.
func (s *TaskService) SetExpireDate(ctx context.Context, id string, at time.Time) (model.Task, error) {
	at = at.UTC()
	if at.Before(s.now()) {
		return model.Task{}, ErrPastDate
	}
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	fields := map[string]interface{}{
		"expireDate": at,
		"notifyDate": at,
	}
	if err := s.store.Update(ctx, id, fields); err != nil {
		return model.Task{}, err
	}
	task.ExpireDate = &at
	task.NotifyDate = &at
	return task, nil
}

// SetNotifyDate moves the notification time. The candidate must not be in
// the past and must not exceed the task's expire date.
func (s *TaskService) SetNotifyDate(ctx context.Context, id string, at time.Time) (model.Task, error) {
	at = at.UTC()
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if at.Before(s.now()) {
		return model.Task{}, ErrPastDate
	}
	if task.ExpireDate != nil && at.After(*task.ExpireDate) {
		return model.Task{}, ErrNotifyAfterExpire
	}
	if err := s.store.Update(ctx, id, map[string]interface{}{"notifyDate": at}); err != nil {
		return model.Task{}, err
	}
	task.NotifyDate = &at
	return task, nil
}

// DeleteTask removes a task. Deleting a task that never existed is fine.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, database.ErrTaskNotFound) {
		return nil
	}
	return err
}

func (s *TaskService) GetTask(ctx context.Context, id string) (model.Task, error) {
	return s.store.Get(ctx, id)
}

// ListBySource returns the tasks created by one user, group or room.
func (s *TaskService) ListBySource(ctx context.Context, sourceID string) ([]model.Task, error) {
	return s.store.QueryBySourceID(ctx, sourceID)
}
