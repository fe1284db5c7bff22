package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/interfaces/httpserver/dto"
	"travelbook/services/support-api/internal/utils/platformerrors"
)

// MessageHandler exposes HTTP entrypoints for message ingestion and
// history reads.
type MessageHandler struct {
	cfg     *config.Config
	service *messaging.Service
	log     zerolog.Logger
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(cfg *config.Config, service *messaging.Service, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("handler", "message").Logger(),
	}
}

// Send handles POST /v1/conversations/:conversation_id/messages
// @Summary Send a message
// @Description Validates, authorizes and persists one message, then fans it out to live subscribers.
// @Tags Messages
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 200 {object} dto.DataEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/conversations/{conversation_id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "message-send-bad-body")
		return
	}

	msg, err := h.service.Send(c.Request.Context(), messaging.SendInput{
		ConversationID: c.Param("conversation_id"),
		Body:           req.Body,
		Mode:           messaging.SendMode(req.Mode),
		Identity:       id,
	})
	if err != nil {
		dto.HandleError(c, err, "failed to send message")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope(dto.FromMessage(msg)))
}

// List handles GET /v1/conversations/:conversation_id/messages
// @Summary List messages
// @Description Returns a newest-first page of messages. Use before for keyset paging.
// @Tags Messages
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param limit query int false "Page size"
// @Param before query string false "RFC 3339 exclusive upper bound"
// @Success 200 {object} dto.DataEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{conversation_id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	var query dto.ListMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid query parameters", "message-list-bad-query")
		return
	}

	var before *time.Time
	if query.Before != "" {
		parsed, err := time.Parse(time.RFC3339, query.Before)
		if err != nil {
			dto.HandleNewError(c, platformerrors.ErrorTypeValidation, "before must be an RFC 3339 timestamp", "message-list-bad-before")
			return
		}
		before = &parsed
	}

	_, msgs, err := h.service.Fetch(c.Request.Context(), id, c.Param("conversation_id"), query.Limit, before)
	if err != nil {
		dto.HandleError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope(dto.FromMessages(msgs)))
}
