package notification

import (
	"context"
	"log"
	"sync"
	"time"

	"yangbot/database"
	"yangbot/model"
	"yangbot/timeutil"
)

// DefaultLookahead gives a day of advance notice rather than last-second
// delivery.
const DefaultLookahead = 24 * time.Hour

const maxWorkers = 10

// CycleResult reports one poll cycle. Success counts tasks this cycle marked
// notified after a confirmed delivery.
type CycleResult struct {
	Total   int `json:"total_count"`
	Success int `json:"success_count"`
	Errors  int `json:"error_count"`
}

// Poller scans for qualifying tasks and delivers their notifications. The
// cron timer and the manual trigger both call RunCycle; overlapping cycles
// are safe because marking a task notified is a conditional write in the
// store.
type Poller struct {
	store     database.TaskStore
	notifier  Notifier
	lookahead time.Duration
	now       func() time.Time
}

func NewPoller(store database.TaskStore, notifier Notifier, lookahead time.Duration) *Poller {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Poller{
		store:     store,
		notifier:  notifier,
		lookahead: lookahead,
		now:       timeutil.Now,
	}
}

// RunCycle queries tasks whose notify time falls within the lookahead window
// and attempts delivery for each. Tasks are processed independently; a slow
// delivery does not block the others. An empty qualifying set is a no-op.
func (p *Poller) RunCycle(ctx context.Context) (CycleResult, error) {
	now := p.now()
	tasks, err := p.store.QueryNotifyWindow(ctx, now, now.Add(p.lookahead))
	if err != nil {
		return CycleResult{}, err
	}

	result := CycleResult{Total: len(tasks)}
	if len(tasks) == 0 {
		return result, nil
	}

	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, task := range tasks {
		wg.Add(1)
		go func(t model.Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ok := p.process(ctx, t)

			mu.Lock()
			if ok {
				result.Success++
			} else {
				result.Errors++
			}
			mu.Unlock()
		}(task)
	}
	wg.Wait()

	return result, nil
}

// process delivers one notification and, only on confirmed delivery, flips
// isNotified. A failed delivery leaves the task eligible for the next cycle.
func (p *Poller) process(ctx context.Context, task model.Task) bool {
	if err := p.notifier.Push(ctx, task.NotifiedID, BuildNotificationMessage(task)); err != nil {
		log.Printf("Failed to deliver notification for task %s: %v", task.ID, err)
		return false
	}
	marked, err := p.store.MarkNotified(ctx, task.ID)
	if err != nil {
		log.Printf("Failed to mark task %s notified: %v", task.ID, err)
		return false
	}
	if !marked {
		// A concurrent cycle won the false->true transition.
		log.Printf("Task %s already notified, skipping", task.ID)
		return false
	}
	return true
}
