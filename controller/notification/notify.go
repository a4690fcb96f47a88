package notification

import (
	"net/http"
	"time"

	"yangbot/middleware"
	"yangbot/notification"

	"github.com/gin-gonic/gin"
)

// NotifyCheckController exposes the manual poll trigger. It runs the same
// cycle function as the cron timer, synchronously.
func NotifyCheckController(router *gin.Engine, poller *notification.Poller) {
	router.POST("/notify_check", middleware.AdminTokenMiddleware(), func(c *gin.Context) {
		NotifyCheck(c, poller)
	})
}

func NotifyCheck(c *gin.Context, poller *notification.Poller) {
	result, err := poller.RunCycle(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Total == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No tasks to notify."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Notifications processed successfully",
		"current_time":  time.Now().UTC().Format(time.RFC3339),
		"total_count":   result.Total,
		"success_count": result.Success,
		"error_count":   result.Errors,
	})
}
