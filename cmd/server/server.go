package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/autoreply"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/domain/ratelimit"
	"travelbook/services/support-api/internal/infrastructure/auth"
	"travelbook/services/support-api/internal/infrastructure/database"
	"travelbook/services/support-api/internal/infrastructure/logger"
	"travelbook/services/support-api/internal/infrastructure/observability"
	"travelbook/services/support-api/internal/infrastructure/queue"
	"travelbook/services/support-api/internal/infrastructure/replycontent"
	conversationrepo "travelbook/services/support-api/internal/infrastructure/repository/conversation"
	messagerepo "travelbook/services/support-api/internal/infrastructure/repository/message"
	"travelbook/services/support-api/internal/interfaces/httpserver"
	"travelbook/services/support-api/internal/realtime"
	"travelbook/services/support-api/internal/webhook"
	"travelbook/services/support-api/internal/worker"
)

// @title Support API
// @version 1.0
// @description Customer support messaging for the travel booking platform: guest and customer conversations, staff inbox, live event streams and automated first responses.
// @contact.name Travelbook Platform Team
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	messageRepository := messagerepo.NewRepository(db)
	limiter := ratelimit.New(cfg.SendCooldown)
	hub := realtime.NewHub(cfg.RealtimeBuffer, log)
	taskQueue := queue.NewPostgresQueue(db, log)

	contentClient := replycontent.NewClient(cfg.ReplyContentURL, log)
	trigger := autoreply.NewTrigger(autoreply.Settings{
		Enabled:      cfg.AutoReplyEnabled,
		Mode:         autoreply.Mode(cfg.AutoReplyMode),
		AllowPublic:  cfg.AutoReplyAllowPublic,
		AllowPrivate: cfg.AutoReplyAllowPrivate,
		Languages:    cfg.AutoReplyLanguages,
	}, contentClient, log)

	notifier := webhook.NewHTTPService(cfg.HandoffWebhookURL, log)

	messagingService := messaging.NewService(
		conversationRepository,
		messageRepository,
		limiter,
		hub,
		taskQueue,
		trigger,
		notifier,
		messaging.Settings{
			FetchDefaultLimit: cfg.FetchDefaultLimit,
			FetchMaxLimit:     cfg.FetchMaxLimit,
		},
		log,
	)

	if _, err := messagingService.EnsurePublicChannel(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure public channel")
	}

	workerPool := worker.NewPool(
		taskQueue,
		trigger,
		messagingService,
		notifier,
		worker.Config{
			WorkerCount: cfg.BackgroundWorkerCount,
			TaskTimeout: cfg.BackgroundTaskTimeout,
		},
		log,
	)

	workerPool.Start(ctx)
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	httpServer := httpserver.New(cfg, log, messagingService, hub, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
