package config

import (
	"os"
	"strconv"
	"time"

	"taptoearn/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	BotUsername string
	WebAppURL   string
	JWTSecret   string
	BotEnabled  bool

	// Все сбросы считаются по этой зоне, не по серверной
	ResetTZ string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits
	APIRateLimit  int
	APIRateWindow time.Duration
	TapRateLimit  int
	TapRateWindow time.Duration
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	botUsername := os.Getenv("BOT_USERNAME")
	if botUsername == "" {
		botUsername = "TapToEarnBot" // ! если не установлено в env !
	}

	webAppURL := os.Getenv("WEBAPP_URL")
	if webAppURL == "" {
		logger.Fatal("WEBAPP_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	resetTZ := os.Getenv("RESET_TZ")
	if resetTZ == "" {
		resetTZ = "UTC"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:       port,
		DatabaseURL:   dbURL,
		BotToken:      botToken,
		BotUsername:   botUsername,
		WebAppURL:     webAppURL,
		JWTSecret:     jwtSecret,
		BotEnabled:    os.Getenv("BOT_ENABLED") != "false",
		ResetTZ:       resetTZ,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		APIRateLimit:  intEnv("API_RATE_LIMIT", 60),
		APIRateWindow: durationEnv("API_RATE_WINDOW_SECONDS", time.Minute),
		TapRateLimit:  intEnv("TAP_RATE_LIMIT", 30),
		TapRateWindow: durationEnv("TAP_RATE_WINDOW_SECONDS", time.Minute),
	}
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
