package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taptoearn/internal/bot"
	"taptoearn/internal/config"
	"taptoearn/internal/db"
	"taptoearn/internal/gameclock"
	httpServer "taptoearn/internal/http"
	"taptoearn/internal/http/middleware"
	"taptoearn/internal/logger"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"
	"taptoearn/internal/service"
	"taptoearn/internal/telegram"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	logger.InitFromEnv()
	cfg := config.Load()
	service.InitJWT()

	clock, err := gameclock.New(cfg.ResetTZ)
	if err != nil {
		logger.Fatal("invalid RESET_TZ", "tz", cfg.ResetTZ, "error", err)
	}

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Bot API клиент общий для проверок подписки и companion-бота
	var checker telegram.MembershipChecker
	var companion *bot.Bot
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Warn("bot api unavailable, membership checks disabled", "error", err)
	} else {
		checker = telegram.NewBotMembershipChecker(api)
		if cfg.BotEnabled {
			balance := rules.Defaults()
			resets := service.NewResetService(dbPool, clock, balance)
			economy := service.NewEconomyService(dbPool, clock, balance, resets)
			leaderboard := repository.NewLeaderboardRepository(dbPool)
			companion = bot.New(api, economy, leaderboard, cfg.WebAppURL, cfg.BotUsername)
			go companion.Start()
		}
	}

	broadcaster := httpServer.RegisterRoutes(r, dbPool, cfg, clock, checker, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	broadcaster.Stop()
	if companion != nil {
		companion.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
