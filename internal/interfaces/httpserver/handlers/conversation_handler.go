package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/interfaces/httpserver/dto"
	"travelbook/services/support-api/internal/utils/platformerrors"
)

// ConversationHandler exposes HTTP entrypoints for conversation access.
type ConversationHandler struct {
	cfg     *config.Config
	service *messaging.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(cfg *config.Config, service *messaging.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// Bootstrap handles POST /v1/conversations/guest
// @Summary Get or create the caller's private conversation
// @Description Returns the caller's private support thread, creating it on first contact. A signed-in customer carrying an X-Guest-ID header gets that guest thread promoted.
// @Tags Conversations
// @Produce json
// @Param X-Guest-ID header string false "Guest identifier"
// @Success 200 {object} dto.DataEnvelope
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/conversations/guest [post]
func (h *ConversationHandler) Bootstrap(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	conv, err := h.service.GetOrCreateConversation(c.Request.Context(), id, c.GetHeader(GuestIDHeader))
	if err != nil {
		dto.HandleError(c, err, "failed to bootstrap conversation")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope(dto.FromConversation(conv)))
}

// List handles GET /v1/conversations
// @Summary List conversations
// @Description Staff inbox: lists conversations most recently active first.
// @Tags Conversations
// @Produce json
// @Param type query string false "Conversation type filter"
// @Param customer_id query string false "Customer filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.DataEnvelope
// @Failure 403 {object} dto.ErrorResponse
// @Router /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	var query dto.ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.HandleError(c, err, "invalid query parameters")
		return
	}

	filter := chat.ConversationFilter{}
	if query.Type != "" {
		convType := chat.ConversationType(query.Type)
		filter.Type = &convType
	}
	if query.CustomerID != "" {
		filter.CustomerID = &query.CustomerID
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 || query.PageSize > 100 {
		query.PageSize = 50
	}

	convs, err := h.service.ListConversations(c.Request.Context(), id, filter, &chat.Pagination{
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		dto.HandleError(c, err, "failed to list conversations")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope(dto.FromConversations(convs)))
}

// Get handles GET /v1/conversations/:conversation_id
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} dto.DataEnvelope
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{conversation_id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), id, c.Param("conversation_id"))
	if err != nil {
		dto.HandleError(c, err, "failed to get conversation")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope(dto.FromConversation(conv)))
}

// MarkRead handles POST /v1/conversations/:conversation_id/read
// @Summary Mark a conversation read
// @Description Zeroes an unread counter. Without a target the caller's own side is reset; staff may target either side.
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body dto.MarkReadRequest false "Counter target"
// @Success 200 {object} dto.DataEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{conversation_id}/read [post]
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	var req dto.MarkReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "conversation-read-bad-body")
			return
		}
	}

	conv, err := h.service.MarkRead(c.Request.Context(), id, c.Param("conversation_id"), req.Target)
	if err != nil {
		dto.HandleError(c, err, "failed to mark conversation read")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope(dto.FromConversation(conv)))
}
