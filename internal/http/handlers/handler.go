package handlers

import (
	"errors"
	"net/http"

	"taptoearn/internal/repository"
	"taptoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB          *pgxpool.Pool
	BotToken    string
	Economy     *service.EconomyService
	Tasks       *service.TaskService
	Resets      *service.ResetService
	Leaderboard *repository.LeaderboardRepository
}

func NewHandler(db *pgxpool.Pool, botToken string, economy *service.EconomyService, tasks *service.TaskService, resets *service.ResetService, leaderboard *repository.LeaderboardRepository) *Handler {
	return &Handler{
		DB:          db,
		BotToken:    botToken,
		Economy:     economy,
		Tasks:       tasks,
		Resets:      resets,
		Leaderboard: leaderboard,
	}
}

// getPlayerID извлекает player_id из контекста Gin
func getPlayerID(c *gin.Context) (int64, bool) {
	val, ok := c.Get("player_id")
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// fail maps service sentinels to HTTP statuses. Every rule violation is an
// expected outcome, not a 500.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlayerNotFound), errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTapCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrDailyLimitReached),
		errors.Is(err, service.ErrTaskNotReady),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrSelfReferral),
		errors.Is(err, service.ErrAlreadyReferred):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{"error": "external service error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
	}
}
