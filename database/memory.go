package database

import (
	"context"
	"sync"
	"time"

	"yangbot/model"

	"github.com/google/uuid"
)

// MemoryTaskStore is a mutex-guarded in-memory TaskStore. It backs tests and
// can run the bot without Firestore credentials.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]model.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]model.Task)}
}

func (s *MemoryTaskStore) Create(_ context.Context, task model.Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = uuid.NewString()
	s.tasks[task.ID] = task
	return task.ID, nil
}

func (s *MemoryTaskStore) Get(_ context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (s *MemoryTaskStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	for path, value := range fields {
		switch path {
		case "message":
			task.Message = value.(string)
		case "sourceId":
			task.SourceID = value.(string)
		case "notifiedId":
			task.NotifiedID = value.(string)
		case "expireDate":
			at := value.(time.Time)
			task.ExpireDate = &at
		case "notifyDate":
			at := value.(time.Time)
			task.NotifyDate = &at
		case "isNotified":
			task.IsNotified = value.(bool)
		}
	}
	s.tasks[id] = task
	return nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *MemoryTaskStore) QueryNotifyWindow(_ context.Context, lo, hi time.Time) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []model.Task
	for _, task := range s.tasks {
		if task.IsNotified || task.NotifyDate == nil {
			continue
		}
		at := *task.NotifyDate
		if !at.Before(lo) && at.Before(hi) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (s *MemoryTaskStore) QueryBySourceID(_ context.Context, sourceID string) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []model.Task
	for _, task := range s.tasks {
		if task.SourceID == sourceID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (s *MemoryTaskStore) MarkNotified(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return false, ErrTaskNotFound
	}
	if task.IsNotified {
		return false, nil
	}
	task.IsNotified = true
	s.tasks[id] = task
	return true, nil
}
