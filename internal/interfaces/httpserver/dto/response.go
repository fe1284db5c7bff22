package dto

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/utils/platformerrors"
)

// DataEnvelope wraps successful payloads.
type DataEnvelope struct {
	Data interface{} `json:"data"`
}

// Envelope wraps a payload in the standard response shape.
func Envelope(data interface{}) DataEnvelope {
	return DataEnvelope{Data: data}
}

// ConversationPayload is the client-facing conversation shape.
type ConversationPayload struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	CustomerID         *string    `json:"customer_id,omitempty"`
	GuestID            *string    `json:"guest_id,omitempty"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview *string    `json:"last_message_preview,omitempty"`
	LastSenderType     *string    `json:"last_sender_type,omitempty"`
	UnreadStaff        int64      `json:"unread_staff"`
	UnreadCustomer     int64      `json:"unread_customer"`
	CreatedAt          time.Time  `json:"created_at"`
}

// FromConversation maps the domain conversation to its payload.
func FromConversation(c *chat.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:                 c.PublicID,
		Type:               string(c.Type),
		CustomerID:         c.CustomerID,
		GuestID:            c.GuestID,
		LastMessageAt:      c.LastMessageAt,
		LastMessagePreview: c.LastMessagePreview,
		LastSenderType:     c.LastSenderType,
		UnreadStaff:        c.UnreadStaff,
		UnreadCustomer:     c.UnreadCustomer,
		CreatedAt:          c.CreatedAt,
	}
}

// FromConversations maps a conversation list.
func FromConversations(convs []*chat.Conversation) []ConversationPayload {
	payloads := make([]ConversationPayload, len(convs))
	for i, c := range convs {
		payloads[i] = FromConversation(c)
	}
	return payloads
}

// MessagePayload is the client-facing message shape.
type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderType     string    `json:"sender_type"`
	SenderID       *string   `json:"sender_id,omitempty"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromMessage maps the domain message to its payload.
func FromMessage(m *chat.Message) MessagePayload {
	return MessagePayload{
		ID:             m.PublicID,
		ConversationID: m.Conversation,
		SenderType:     string(m.SenderType),
		SenderID:       m.SenderID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMessages maps a message list.
func FromMessages(msgs []*chat.Message) []MessagePayload {
	payloads := make([]MessagePayload, len(msgs))
	for i, m := range msgs {
		payloads[i] = FromMessage(m)
	}
	return payloads
}

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errResp := ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			Message:       message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())

	errResp := ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	}

	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}
