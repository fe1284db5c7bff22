package v1

import (
	"github.com/gin-gonic/gin"

	"travelbook/services/support-api/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, h *handlers.Provider) {
	router.POST("/conversations/guest", h.Conversation.Bootstrap)
	router.GET("/conversations", h.Conversation.List)
	router.GET("/conversations/:conversation_id", h.Conversation.Get)
	router.POST("/conversations/:conversation_id/read", h.Conversation.MarkRead)

	router.POST("/conversations/:conversation_id/messages", h.Message.Send)
	router.GET("/conversations/:conversation_id/messages", h.Message.List)

	router.GET("/conversations/:conversation_id/events", h.Events.Stream)
}
