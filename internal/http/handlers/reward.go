package handlers

import (
	"net/http"

	"taptoearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// WatchAd начисляет TON за просмотр рекламы, с дневным лимитом
func (h *Handler) WatchAd(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	snap, err := h.Economy.WatchAd(c.Request.Context(), playerID)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("ad_reward", "error").Inc()
		fail(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("ad_reward", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"player": snap})
}
