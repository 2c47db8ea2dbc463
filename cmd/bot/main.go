// Standalone bot runner: полезно, когда бот и API масштабируются раздельно.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"taptoearn/internal/bot"
	"taptoearn/internal/config"
	"taptoearn/internal/db"
	"taptoearn/internal/gameclock"
	"taptoearn/internal/logger"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"
	"taptoearn/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

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

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("bot api init failed", "error", err)
	}

	balance := rules.Defaults()
	resets := service.NewResetService(dbPool, clock, balance)
	economy := service.NewEconomyService(dbPool, clock, balance, resets)
	leaderboard := repository.NewLeaderboardRepository(dbPool)

	b := bot.New(api, economy, leaderboard, cfg.WebAppURL, cfg.BotUsername)
	go b.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	b.Stop()
}
