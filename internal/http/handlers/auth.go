package handlers

import (
	"encoding/json"
	"net/http"

	"taptoearn/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// Auth validates Telegram WebApp init_data, lazily provisions the player and
// issues a session token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		return
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}

	var tgUser struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal([]byte(userRaw), &tgUser); err != nil || tgUser.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
		return
	}

	snap, err := h.Economy.GetOrCreatePlayer(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.FirstName)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := service.GenerateJWT(snap.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"player": snap,
	})
}
