package handlers

import (
	"net/http"

	"taptoearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ListTasks отдаёт активные задания
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.Tasks.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// TaskStatuses отдаёт прогресс игрока по заданиям
func (h *Handler) TaskStatuses(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	statuses, err := h.Tasks.Statuses(c.Request.Context(), playerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// CheckTask проверяет выполнение условия задания
func (h *Handler) CheckTask(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task id required"})
		return
	}

	status, verified, err := h.Tasks.Check(c.Request.Context(), playerID, taskID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "verified": verified})
}

// ClaimTask выдаёт награду за проверенное задание
func (h *Handler) ClaimTask(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task id required"})
		return
	}

	status, task, snap, err := h.Tasks.Claim(c.Request.Context(), playerID, taskID)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("task_claim", "error").Inc()
		fail(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("task_claim", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"reward": gin.H{"coins": task.RewardCoins, "ton": task.RewardTon},
		"player": snap,
	})
}
