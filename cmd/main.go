package main

import (
	"context"
	"log"

	"signalgate/internal/bot"
	"signalgate/internal/caching"
	"signalgate/internal/config"
	"signalgate/internal/handlers"
	"signalgate/internal/jobs"
	"signalgate/internal/jobs/background"
	"signalgate/internal/middleware"
	"signalgate/internal/repositories"
	"signalgate/internal/services"
	"signalgate/pkg/database"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

const version = "1.0.0"

func main() {
	godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := repositories.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	bannerSvc, err := services.NewBannerService(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL,
		cfg.BannerBucket, cfg.BannerObject,
	)
	if err != nil {
		log.Fatalf("Failed to initialize banner storage: %v", err)
	}
	if err := bannerSvc.EnsureBucket(ctx); err != nil {
		log.Printf("WARN: banner bucket unavailable, /start falls back to text: %v", err)
	}

	// Repositories and services
	paymentRepo := repositories.NewPaymentRepo(pool)
	paystackSvc := services.NewPaystackService(cfg.PaystackSecretKey, cfg.PaystackBaseURL, cfg.PublicBaseURL+"/payment-success")
	accessSvc := services.NewAccessService(paymentRepo, cacheSvc)
	paymentSvc := services.NewPaymentService(
		paymentRepo, cacheSvc,
		cfg.PriceSubunits, cfg.Currency, cfg.SubscriptionDuration, cfg.BotUsername,
	)

	// Telegram front end, doubling as the Notifier
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to connect Telegram bot: %v", err)
	}
	tgBot := bot.New(api, accessSvc, paymentSvc, paystackSvc, bannerSvc, cacheSvc, bot.Options{
		AdminChatID:   cfg.AdminChatID,
		PriceSubunits: cfg.PriceSubunits,
		Currency:      cfg.Currency,
		PriceDisplay:  cfg.PriceDisplay,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	// Handlers
	webhookHandlers := handlers.NewWebhookHandlers(paymentSvc, paystackSvc, tgBot, cacheSvc)
	adminHandlers := handlers.NewAdminHandlers(paymentSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)
	pageHandlers := handlers.NewPageHandlers(bannerSvc)

	// Background expiry sweep
	sweeper := jobs.NewExpirySweeper(paymentRepo, tgBot, cacheSvc)
	scheduler, err := background.NewJobScheduler(sweeper)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	go tgBot.Run(ctx)

	// Create Echo instance
	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Public surface
	e.GET("/", pageHandlers.Home)
	e.GET("/payment-success", pageHandlers.PaymentSuccess)
	e.GET("/renew", pageHandlers.Renew)
	e.GET("/banner.png", pageHandlers.Banner)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.POST("/paystack/webhook", webhookHandlers.PaystackWebhook)

	// Admin API
	admin := e.Group("/v1/admin")
	admin.Use(middleware.AdminJWT(cfg.AdminAPISecret))
	admin.GET("/payments", adminHandlers.ListPayments)
	admin.POST("/subscribers/:id/revoke", adminHandlers.RevokeSubscriber)

	log.Printf("🚀 Signal gate v%s starting on port %s", version, cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
