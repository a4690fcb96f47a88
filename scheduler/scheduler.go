// scheduler/scheduler.go
package scheduler

import (
	"context"
	"log"

	"yangbot/notification"

	"github.com/robfig/cron/v3"
)

// cronSpec fires at second 0 of every minute.
const cronSpec = "0 * * * * *"

// Start runs the notification poll cycle on a fixed cadence. A failed cycle
// is logged and never stops the timer. The returned cron can be stopped to
// let an in-flight cycle finish during shutdown.
func Start(poller *notification.Poller) *cron.Cron {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(cronSpec, func() {
		result, err := poller.RunCycle(context.Background())
		if err != nil {
			log.Printf("Notification cycle error: %v", err)
			return
		}
		if result.Total > 0 {
			log.Printf("Notification cycle completed - Success: %d, Error: %d, Total: %d",
				result.Success, result.Errors, result.Total)
		}
	})
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started")
	return c
}
