package handlers

import (
	"net/http"

	"taptoearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// UpgradeTapPower списывает монеты и увеличивает силу тапа на 1
func (h *Handler) UpgradeTapPower(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	snap, cost, err := h.Economy.UpgradeTapPower(c.Request.Context(), playerID)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("upgrade", "error").Inc()
		fail(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("upgrade", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"player": snap, "cost": cost})
}
