package handlers

import (
	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/realtime"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Conversation *ConversationHandler
	Message      *MessageHandler
	Events       *EventsHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(cfg *config.Config, messagingService *messaging.Service, hub *realtime.Hub, log zerolog.Logger) *Provider {
	return &Provider{
		Conversation: NewConversationHandler(cfg, messagingService, log),
		Message:      NewMessageHandler(cfg, messagingService, log),
		Events:       NewEventsHandler(cfg, messagingService, hub, log),
	}
}
