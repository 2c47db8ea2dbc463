package handlers

import (
	"net/http"

	"taptoearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type referralRequest struct {
	InviterTgID int64 `json:"inviter_tg_id" binding:"required"`
}

// ApplyReferral привязывает игрока к пригласившему и начисляет бонус
func (h *Handler) ApplyReferral(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req referralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.Economy.ApplyReferral(c.Request.Context(), playerID, req.InviterTgID); err != nil {
		middleware.EconomyOps.WithLabelValues("referral", "error").Inc()
		fail(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("referral", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
