package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/interfaces/httpserver/dto"
	"travelbook/services/support-api/internal/realtime"
)

// EventsHandler exposes the live event stream for a conversation.
type EventsHandler struct {
	cfg     *config.Config
	service *messaging.Service
	hub     *realtime.Hub
	log     zerolog.Logger
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(cfg *config.Config, service *messaging.Service, hub *realtime.Hub, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		cfg:     cfg,
		service: service,
		hub:     hub,
		log:     log.With().Str("handler", "events").Logger(),
	}
}

// Stream handles GET /v1/conversations/:conversation_id/events
// @Summary Stream conversation events
// @Description Server-sent events: a recent-history snapshot followed by live message and conversation frames. Heartbeat comments keep intermediaries from closing the stream.
// @Tags Events
// @Produce text/event-stream
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {string} string "event stream"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{conversation_id}/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	id, err := resolveIdentity(c, h.cfg.StaffRoles)
	if err != nil {
		dto.HandleError(c, err, "failed to resolve identity")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	conversationID := c.Param("conversation_id")

	// Subscribe before loading the snapshot so messages arriving during
	// the load are buffered rather than lost; the merge step below
	// collapses any overlap.
	sub, cancel := h.hub.Subscribe(conversationID)
	defer cancel()

	conv, snapshot, err := h.service.Fetch(c.Request.Context(), id, conversationID, h.cfg.FetchDefaultLimit, nil)
	if err != nil {
		dto.HandleError(c, err, "failed to open event stream")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Snapshot arrives newest first; replay it oldest first.
	ordered := make([]*chat.Message, 0, len(snapshot))
	for i := len(snapshot) - 1; i >= 0; i-- {
		ordered = append(ordered, snapshot[i])
	}

	buffered := drainEvents(sub)
	merged := realtime.MergeMessages(ordered, buffered)

	h.sendEvent(c, flusher, "conversation", dto.FromConversation(conv))
	for _, m := range merged {
		h.sendEvent(c, flusher, "message", dto.FromMessage(m))
	}

	heartbeat := time.NewTicker(h.cfg.RealtimeHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return

		case event, open := <-sub.Events():
			if !open {
				// Dropped by the hub; the client reconnects and
				// recovers via the snapshot.
				return
			}
			switch event.Name {
			case realtime.EventMessage:
				if event.Message != nil {
					h.sendEvent(c, flusher, "message", dto.FromMessage(event.Message))
				}
			case realtime.EventConversation:
				if event.Conversation != nil {
					h.sendEvent(c, flusher, "conversation", dto.FromConversation(event.Conversation))
				}
			}

		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(c *gin.Context, flusher http.Flusher, name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal SSE payload")
		return
	}

	fmt.Fprintf(c.Writer, "event: %s\n", name)
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	flusher.Flush()
}

func drainEvents(sub *realtime.Subscriber) []*chat.Message {
	var msgs []*chat.Message
	for {
		select {
		case event, open := <-sub.Events():
			if !open {
				return msgs
			}
			if event.Name == realtime.EventMessage && event.Message != nil {
				msgs = append(msgs, event.Message)
			}
		default:
			return msgs
		}
	}
}
