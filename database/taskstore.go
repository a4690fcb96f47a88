package database

import (
	"context"
	"errors"
	"time"

	"yangbot/model"
)

// CollectionName is the Firestore collection holding Task documents.
const CollectionName = "Task"

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrStoreUnavailable = errors.New("task store unavailable")
)

// TaskStore is the persistence boundary for Task records. Implementations
// must treat query results as an unordered set.
type TaskStore interface {
	// Create inserts a new task and returns the assigned document ID.
	Create(ctx context.Context, task model.Task) (string, error)
	Get(ctx context.Context, id string) (model.Task, error)
	// Update writes only the given fields, keyed by Firestore field name.
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// Delete removes a task. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
	// QueryNotifyWindow returns tasks with notifyDate in [lo, hi) that have
	// not been notified yet.
	QueryNotifyWindow(ctx context.Context, lo, hi time.Time) ([]model.Task, error)
	// QueryBySourceID returns all tasks created by the given source.
	QueryBySourceID(ctx context.Context, sourceID string) ([]model.Task, error)
	// MarkNotified transitions isNotified from false to true and reports
	// whether this call made the transition. A task that is already
	// notified is left untouched and reported as false.
	MarkNotified(ctx context.Context, id string) (bool, error)
}
