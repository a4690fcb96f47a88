package task

import (
	"errors"
	"net/http"

	"yangbot/database"
	"yangbot/dto"
	"yangbot/middleware"
	"yangbot/services"

	"github.com/gin-gonic/gin"
)

// TaskController registers the administrative task endpoints. They bypass
// the chat grammar and talk to the lifecycle service directly.
func TaskController(router *gin.Engine, service *services.TaskService) {
	router.POST("/task", middleware.AdminTokenMiddleware(), func(c *gin.Context) {
		CreateTask(c, service)
	})
	router.GET("/tasks", middleware.AdminTokenMiddleware(), func(c *gin.Context) {
		ListTasks(c, service)
	})
	router.GET("/task/:id", middleware.AdminTokenMiddleware(), func(c *gin.Context) {
		GetTask(c, service)
	})
	router.DELETE("/task/:id", middleware.AdminTokenMiddleware(), func(c *gin.Context) {
		DeleteTask(c, service)
	})
}

func CreateTask(c *gin.Context, service *services.TaskService) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	notifiedID := req.NotifiedID
	if notifiedID == "" {
		notifiedID = req.SourceID
	}

	taskID, err := service.CreateTask(c.Request.Context(), req.Message, req.SourceID, notifiedID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"taskID":  taskID,
	})
}

func ListTasks(c *gin.Context, service *services.TaskService) {
	sourceID := c.Query("sourceId")
	if sourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sourceId is required"})
		return
	}

	tasks, err := service.ListBySource(c.Request.Context(), sourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func GetTask(c *gin.Context, service *services.TaskService) {
	task, err := service.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context, service *services.TaskService) {
	if err := service.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
