package handlers

import (
	"net/http"

	"taptoearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ActivateTurbo включает множитель тапа на ограниченное время
func (h *Handler) ActivateTurbo(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	snap, err := h.Economy.ActivateTurbo(c.Request.Context(), playerID)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("turbo", "error").Inc()
		fail(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("turbo", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"player": snap})
}

// TurboStatus отдаёт текущее состояние турбо без мутаций
func (h *Handler) TurboStatus(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	snap, err := h.Economy.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":      snap.TurboActive,
		"until":       snap.TurboUntil,
		"remaining":   snap.TurboRemaining,
		"multiplier":  h.Economy.Balance().TurboMultiplier,
		"duration_ms": h.Economy.Balance().TurboDuration.Milliseconds(),
	})
}
