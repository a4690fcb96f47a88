package connection

import (
	"log"

	notifyctl "yangbot/controller/notification"
	taskctl "yangbot/controller/task"
	webhookctl "yangbot/controller/webhook"
	"yangbot/database"
	"yangbot/notification"
	"yangbot/scheduler"
	"yangbot/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

func StartServer() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	FB, err := FBConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore client: %v", err)
	}

	bot, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelAccessToken)
	if err != nil {
		log.Fatalf("Failed to initialize LINE messaging client: %v", err)
	}

	store := database.NewFirestoreTaskStore(FB)
	taskService := services.NewTaskService(store)
	poller := notification.NewPoller(store, notification.NewLineNotifier(bot), cfg.NotifyLookahead)

	router := gin.Default()

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	router.Use(cors.Default())

	webhookctl.WebhookController(router, taskService, bot, cfg.LineChannelSecret)

	taskctl.TaskController(router, taskService)

	notifyctl.NotifyCheckController(router, poller)

	scheduler.Start(poller)

	router.Run(":" + cfg.Port)
}
