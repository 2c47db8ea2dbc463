package http

import (
	"time"

	"taptoearn/internal/config"
	"taptoearn/internal/gameclock"
	"taptoearn/internal/http/handlers"
	"taptoearn/internal/http/middleware"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"
	"taptoearn/internal/service"
	"taptoearn/internal/telegram"
	"taptoearn/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes собирает сервисы и вешает все маршруты API.
// checker может быть nil, тогда проверка подписки считается недоступной.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, clock *gameclock.Clock, checker telegram.MembershipChecker, version string) *ws.Broadcaster {
	balance := rules.Defaults()

	resets := service.NewResetService(db, clock, balance)
	economy := service.NewEconomyService(db, clock, balance, resets)
	tasks := service.NewTaskService(db, clock, balance, resets, checker)
	leaderboard := repository.NewLeaderboardRepository(db)

	h := handlers.NewHandler(db, cfg.BotToken, economy, tasks, resets, leaderboard)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)

	// Live weekly top over websocket
	hub := ws.NewHub()
	broadcaster := ws.NewBroadcaster(hub, leaderboard, 5*time.Second)
	broadcaster.Start()
	r.GET("/ws/leaderboard", ws.HandleWS(hub))

	return broadcaster
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	// Auth: initData in, JWT out. Tighter window than the rest of the API.
	api.POST("/auth", middleware.RedisRateLimit(5, time.Minute), h.Auth)

	// Profile
	api.GET("/me", middleware.JWT(), h.Me)
	api.GET("/me/history", middleware.JWT(), h.History)

	// Economy. Taps are limited per player, not per IP.
	tapRL := middleware.TapRateLimit(cfg.TapRateLimit, cfg.TapRateWindow)
	api.POST("/tap", middleware.JWT(), tapRL, h.Tap)
	api.POST("/upgrade/tap_power", middleware.JWT(), h.UpgradeTapPower)
	api.POST("/reward/ad", middleware.JWT(), h.WatchAd)
	api.POST("/turbo/activate", middleware.JWT(), h.ActivateTurbo)
	api.GET("/turbo/status", middleware.JWT(), h.TurboStatus)

	// Tasks
	api.GET("/tasks", h.ListTasks)
	api.GET("/tasks/status", middleware.JWT(), h.TaskStatuses)
	api.POST("/tasks/:id/check", middleware.JWT(), h.CheckTask)
	api.POST("/tasks/:id/claim", middleware.JWT(), h.ClaimTask)

	// Leaderboard
	api.GET("/leaderboard", h.LeaderboardTop)
	api.GET("/leaderboard/rank", middleware.JWT(), h.LeaderboardRank)

	// Referrals
	api.POST("/referral/apply", middleware.JWT(), h.ApplyReferral)
}
