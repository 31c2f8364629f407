package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting, populated from the environment.
type Config struct {
	Port string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BotToken    string
	BotUsername string
	AdminChatID int64

	PaystackSecretKey string
	PaystackBaseURL   string
	PublicBaseURL     string

	// Subscription pricing: a single fixed plan.
	PriceSubunits        int64
	Currency             string
	PriceDisplay         string
	SubscriptionDuration time.Duration

	AdminAPISecret string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	BannerBucket   string
	BannerObject   string
}

func New() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		BotUsername:       getEnv("BOT_USERNAME", "minesprosignal_bot"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PublicBaseURL:     os.Getenv("PUBLIC_BASE_URL"),
		Currency:          getEnv("CURRENCY", "GHS"),
		PriceDisplay:      getEnv("PRICE_DISPLAY", "₵60 (≈ $5)"),
		AdminAPISecret:    os.Getenv("ADMIN_API_SECRET"),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:       os.Getenv("MINIO_USE_SSL") == "true",
		BannerBucket:      getEnv("BANNER_BUCKET", "signalgate-assets"),
		BannerObject:      getEnv("BANNER_OBJECT", "banner.png"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}
	if cfg.PaystackSecretKey == "" {
		return nil, errors.New("PAYSTACK_SECRET_KEY environment variable is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("PUBLIC_BASE_URL environment variable is required")
	}
	if cfg.AdminAPISecret == "" {
		return nil, errors.New("ADMIN_API_SECRET environment variable is required")
	}

	var err error
	cfg.RedisDB, err = getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	adminChatID, err := getEnvInt("ADMIN_TELEGRAM_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.AdminChatID = int64(adminChatID)

	price, err := getEnvInt("PRICE_SUBUNITS", 6000)
	if err != nil {
		return nil, err
	}
	cfg.PriceSubunits = int64(price)

	days, err := getEnvInt("SUBSCRIPTION_DAYS", 10)
	if err != nil {
		return nil, err
	}
	cfg.SubscriptionDuration = time.Duration(days) * 24 * time.Hour

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
