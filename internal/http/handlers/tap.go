package handlers

import (
	"net/http"

	"taptoearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type tapRequest struct {
	Count int `json:"count" binding:"required"`
}

// Tap начисляет монеты за пачку тапов
func (h *Handler) Tap(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req tapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	snap, err := h.Economy.Tap(c.Request.Context(), playerID, int64(req.Count))
	if err != nil {
		middleware.EconomyOps.WithLabelValues("tap", "error").Inc()
		fail(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("tap", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"player": snap})
}
