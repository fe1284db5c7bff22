//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/autoreply"
	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/domain/ratelimit"
	"travelbook/services/support-api/internal/infrastructure/auth"
	"travelbook/services/support-api/internal/infrastructure/database"
	"travelbook/services/support-api/internal/infrastructure/logger"
	"travelbook/services/support-api/internal/infrastructure/queue"
	"travelbook/services/support-api/internal/infrastructure/replycontent"
	conversationrepo "travelbook/services/support-api/internal/infrastructure/repository/conversation"
	messagerepo "travelbook/services/support-api/internal/infrastructure/repository/message"
	"travelbook/services/support-api/internal/interfaces/httpserver"
	"travelbook/services/support-api/internal/realtime"
	"travelbook/services/support-api/internal/webhook"
)

var messagingSet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(chat.ConversationRepository), new(*conversationrepo.Repository)),
	messagerepo.NewRepository,
	wire.Bind(new(chat.MessageRepository), new(*messagerepo.Repository)),
	queue.NewPostgresQueue,
	wire.Bind(new(queue.TaskQueue), new(*queue.PostgresQueue)),
	newContentClient,
	wire.Bind(new(autoreply.ContentProvider), new(*replycontent.Client)),
	newNotifier,
	wire.Bind(new(webhook.Service), new(*webhook.HTTPService)),
	newTrigger,
	newLimiter,
	newHub,
	newMessagingService,
)

// BuildApplication demonstrates how to assemble the support service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		messagingSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newContentClient(cfg *config.Config, log zerolog.Logger) *replycontent.Client {
	return replycontent.NewClient(cfg.ReplyContentURL, log)
}

func newNotifier(cfg *config.Config, log zerolog.Logger) *webhook.HTTPService {
	return webhook.NewHTTPService(cfg.HandoffWebhookURL, log)
}

func newTrigger(cfg *config.Config, content autoreply.ContentProvider, log zerolog.Logger) *autoreply.Trigger {
	return autoreply.NewTrigger(autoreply.Settings{
		Enabled:      cfg.AutoReplyEnabled,
		Mode:         autoreply.Mode(cfg.AutoReplyMode),
		AllowPublic:  cfg.AutoReplyAllowPublic,
		AllowPrivate: cfg.AutoReplyAllowPrivate,
		Languages:    cfg.AutoReplyLanguages,
	}, content, log)
}

func newLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.SendCooldown)
}

func newHub(cfg *config.Config, log zerolog.Logger) *realtime.Hub {
	return realtime.NewHub(cfg.RealtimeBuffer, log)
}

func newMessagingService(
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	limiter *ratelimit.Limiter,
	hub *realtime.Hub,
	taskQueue queue.TaskQueue,
	trigger *autoreply.Trigger,
	notifier webhook.Service,
	cfg *config.Config,
	log zerolog.Logger,
) *messaging.Service {
	return messaging.NewService(
		conversations,
		messages,
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
}
