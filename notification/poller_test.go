package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yangbot/database"
	"yangbot/model"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []string
	fail   bool
}

func (f *fakeNotifier) Push(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrDeliveryFailed
	}
	f.pushes = append(f.pushes, to+": "+text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func newTestPoller(store database.TaskStore, notifier Notifier) *Poller {
	p := NewPoller(store, notifier, DefaultLookahead)
	p.now = func() time.Time { return testNow }
	return p
}

func createTask(t *testing.T, store database.TaskStore, notifyAt time.Time) string {
	t.Helper()
	ctx := context.Background()
	expire := notifyAt.Add(time.Hour)
	id, err := store.Create(ctx, model.Task{Message: "buy milk", SourceID: "U1", NotifiedID: "U1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Update(ctx, id, map[string]interface{}{"expireDate": expire, "notifyDate": notifyAt}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return id
}

func TestRunCycleNotifiesQualifyingTasks(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryTaskStore()
	notifier := &fakeNotifier{}
	poller := newTestPoller(store, notifier)

	id := createTask(t, store, testNow.Add(23*time.Hour))
	createTask(t, store, testNow.Add(25*time.Hour)) // outside the window

	result, err := poller.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Total != 1 || result.Success != 1 || result.Errors != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 push, got %d", notifier.count())
	}

	task, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !task.IsNotified {
		t.Error("task must be marked notified after confirmed delivery")
	}
}

func TestRunCycleEmptySetIsNoOp(t *testing.T) {
	store := database.NewMemoryTaskStore()
	notifier := &fakeNotifier{}
	poller := newTestPoller(store, notifier)

	result, err := poller.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Total != 0 || result.Success != 0 || result.Errors != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if notifier.count() != 0 {
		t.Errorf("expected no pushes, got %d", notifier.count())
	}
}

func TestRunCycleIdempotent(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryTaskStore()
	notifier := &fakeNotifier{}
	poller := newTestPoller(store, notifier)

	createTask(t, store, testNow.Add(time.Hour))

	if _, err := poller.RunCycle(ctx); err != nil {
		t.Fatalf("first RunCycle failed: %v", err)
	}
	second, err := poller.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second RunCycle failed: %v", err)
	}
	if second.Total != 0 || second.Success != 0 {
		t.Errorf("second cycle must find nothing, got %+v", second)
	}
	if notifier.count() != 1 {
		t.Errorf("expected exactly 1 push across both cycles, got %d", notifier.count())
	}
}

func TestRunCycleDeliveryFailureKeepsTaskEligible(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryTaskStore()
	notifier := &fakeNotifier{fail: true}
	poller := newTestPoller(store, notifier)

	id := createTask(t, store, testNow.Add(time.Hour))

	result, err := poller.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Success != 0 || result.Errors != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	task, _ := store.Get(ctx, id)
	if task.IsNotified {
		t.Error("failed delivery must leave isNotified false")
	}

	// The next cycle retries and succeeds.
	notifier.fail = false
	result, err = poller.RunCycle(ctx)
	if err != nil {
		t.Fatalf("retry RunCycle failed: %v", err)
	}
	if result.Success != 1 {
		t.Errorf("expected retry to succeed, got %+v", result)
	}
}

func TestRunCycleStoreError(t *testing.T) {
	poller := newTestPoller(failingStore{}, &fakeNotifier{})
	if _, err := poller.RunCycle(context.Background()); !errors.Is(err, database.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

type failingStore struct {
	database.TaskStore
}

func (failingStore) QueryNotifyWindow(context.Context, time.Time, time.Time) ([]model.Task, error) {
	return nil, database.ErrStoreUnavailable
}

func TestConcurrentCyclesNotifyAtMostOnce(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryTaskStore()
	notifier := &fakeNotifier{}
	poller := newTestPoller(store, notifier)

	id := createTask(t, store, testNow.Add(time.Hour))

	var wg sync.WaitGroup
	results := make([]CycleResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := poller.RunCycle(ctx)
			if err != nil {
				t.Errorf("RunCycle failed: %v", err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	// Delivery is at-least-once, but only one cycle may win the
	// false -> true transition.
	if total := results[0].Success + results[1].Success; total != 1 {
		t.Errorf("expected exactly 1 success across concurrent cycles, got %d", total)
	}
	task, _ := store.Get(ctx, id)
	if !task.IsNotified {
		t.Error("task must be marked notified")
	}
}
