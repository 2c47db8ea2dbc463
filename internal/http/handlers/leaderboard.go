package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"taptoearn/internal/repository"

	"github.com/gin-gonic/gin"
)

const maxLeaderboardLimit = 100

func parseScope(c *gin.Context) repository.Scope {
	switch c.DefaultQuery("scope", "weekly") {
	case "total":
		return repository.ScopeTotal
	default:
		return repository.ScopeWeekly
	}
}

// LeaderboardTop отдаёт топ игроков по выбранной метрике
func (h *Handler) LeaderboardTop(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.Resets.EnsureCurrent(ctx); err != nil {
		fail(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	scope := parseScope(c)
	entries, err := h.Leaderboard.Top(ctx, scope, limit)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownScope) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope"})
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": scope, "entries": entries})
}

// LeaderboardRank отдаёт позицию текущего игрока
func (h *Handler) LeaderboardRank(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Resets.EnsureCurrent(ctx); err != nil {
		fail(c, err)
		return
	}

	scope := parseScope(c)
	rank, score, err := h.Leaderboard.Rank(ctx, scope, playerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": scope, "rank": rank, "score": score})
}
