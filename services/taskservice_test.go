package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"yangbot/database"
	"yangbot/model"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*TaskService, *database.MemoryTaskStore) {
	store := database.NewMemoryTaskStore()
	service := &TaskService{store: store, now: func() time.Time { return testNow }}
	return service, store
}

func mustCreate(t *testing.T, service *TaskService) string {
	t.Helper()
	id, err := service.CreateTask(context.Background(), "buy milk", "U1", "U1")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	return id
}

func TestCreateTask(t *testing.T) {
	service, _ := newTestService()
	id := mustCreate(t, service)

	task, err := service.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.IsNotified {
		t.Error("new task must not be notified")
	}
	if task.ExpireDate != nil || task.NotifyDate != nil {
		t.Errorf("new task must have no dates, got %+v", task)
	}
}

func TestSetExpireDate(t *testing.T) {
	ctx := context.Background()

	t.Run("future date sets both expire and notify", func(t *testing.T) {
		service, _ := newTestService()
		id := mustCreate(t, service)

		// The UTC equivalent of 2025-06-01T10:00 in Asia/Taipei.
		at := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
		task, err := service.SetExpireDate(ctx, id, at)
		if err != nil {
			t.Fatalf("SetExpireDate failed: %v", err)
		}
		if task.ExpireDate == nil || !task.ExpireDate.Equal(at) {
			t.Errorf("expected expireDate %v, got %v", at, task.ExpireDate)
		}
		if task.NotifyDate == nil || !task.NotifyDate.Equal(at) {
			t.Errorf("expected notifyDate to default to expireDate, got %v", task.NotifyDate)
		}
	})

	t.Run("past date is rejected without a write", func(t *testing.T) {
		service, _ := newTestService()
		id := mustCreate(t, service)

		if _, err := service.SetExpireDate(ctx, id, testNow.Add(-time.Hour)); !errors.Is(err, ErrPastDate) {
			t.Fatalf("expected ErrPastDate, got %v", err)
		}
		task, _ := service.GetTask(ctx, id)
		if task.ExpireDate != nil || task.NotifyDate != nil {
			t.Errorf("rejected update must leave the task unchanged, got %+v", task)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		service, _ := newTestService()
		if _, err := service.SetExpireDate(ctx, "nope", testNow.Add(time.Hour)); !errors.Is(err, database.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
	})
}

func TestSetNotifyDate(t *testing.T) {
	ctx := context.Background()
	expire := testNow.Add(48 * time.Hour)

	setup := func(t *testing.T) (*TaskService, string) {
		service, _ := newTestService()
		id := mustCreate(t, service)
		if _, err := service.SetExpireDate(ctx, id, expire); err != nil {
			t.Fatalf("SetExpireDate failed: %v", err)
		}
		return service, id
	}

	t.Run("earlier than expire succeeds and updates only notify", func(t *testing.T) {
		service, id := setup(t)
		at := expire.Add(-24 * time.Hour)

		task, err := service.SetNotifyDate(ctx, id, at)
		if err != nil {
			t.Fatalf("SetNotifyDate failed: %v", err)
		}
		if task.NotifyDate == nil || !task.NotifyDate.Equal(at) {
			t.Errorf("expected notifyDate %v, got %v", at, task.NotifyDate)
		}
		if task.ExpireDate == nil || !task.ExpireDate.Equal(expire) {
			t.Errorf("expireDate must be untouched, got %v", task.ExpireDate)
		}
	})

	t.Run("after expire is rejected and notify keeps its previous value", func(t *testing.T) {
		service, id := setup(t)

		if _, err := service.SetNotifyDate(ctx, id, expire.Add(time.Hour)); !errors.Is(err, ErrNotifyAfterExpire) {
			t.Fatalf("expected ErrNotifyAfterExpire, got %v", err)
		}
		task, _ := service.GetTask(ctx, id)
		if task.NotifyDate == nil || !task.NotifyDate.Equal(expire) {
			t.Errorf("notifyDate must keep its previous value %v, got %v", expire, task.NotifyDate)
		}
	})

	t.Run("equal to expire is allowed", func(t *testing.T) {
		service, id := setup(t)
		if _, err := service.SetNotifyDate(ctx, id, expire); err != nil {
			t.Fatalf("SetNotifyDate at expire failed: %v", err)
		}
	})

	t.Run("past date is rejected", func(t *testing.T) {
		service, id := setup(t)
		if _, err := service.SetNotifyDate(ctx, id, testNow.Add(-time.Minute)); !errors.Is(err, ErrPastDate) {
			t.Fatalf("expected ErrPastDate, got %v", err)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		service, _ := newTestService()
		if _, err := service.SetNotifyDate(ctx, "nope", testNow.Add(time.Hour)); !errors.Is(err, database.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
	})
}

func TestDeleteTaskIdempotent(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	id := mustCreate(t, service)

	if err := service.DeleteTask(ctx, id); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := service.DeleteTask(ctx, id); err != nil {
		t.Fatalf("deleting an already deleted task must not fail: %v", err)
	}
}

func TestListBySource(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()
	mustCreate(t, service)
	mustCreate(t, service)
	if _, err := store.Create(ctx, model.Task{Message: "other", SourceID: "U2", NotifiedID: "U2"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tasks, err := service.ListBySource(ctx, "U1")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("expected 2 tasks for U1, got %d", len(tasks))
	}
}
