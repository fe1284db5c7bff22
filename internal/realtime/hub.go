package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/infrastructure/metrics"
)

// EventName labels an event-stream frame.
type EventName string

const (
	EventMessage      EventName = "message"
	EventConversation EventName = "conversation"
)

// Event is one realtime frame fanned out to subscribers.
type Event struct {
	Name         EventName
	Conversation *chat.Conversation
	Message      *chat.Message
}

// Subscriber receives events for a single conversation. The channel is
// closed when the subscriber is dropped or unsubscribed.
type Subscriber struct {
	ch chan Event
}

// Events returns the subscriber's receive channel.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub fans events out to per-conversation subscriber sets. Delivery is
// best-effort: a subscriber whose buffer is full is dropped rather than
// allowed to stall the publisher. Clients recover via the history
// endpoint after a reconnect.
type Hub struct {
	mu      sync.RWMutex
	buffer  int
	streams map[string]map[*Subscriber]struct{}
	log     zerolog.Logger
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		buffer:  buffer,
		streams: make(map[string]map[*Subscriber]struct{}),
		log:     log.With().Str("component", "realtime-hub").Logger(),
	}
}

// Subscribe registers a subscriber for the conversation and returns it
// with a cancel function. The cancel function is idempotent.
func (h *Hub) Subscribe(conversationID string) (*Subscriber, func()) {
	sub := &Subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	set, ok := h.streams[conversationID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.streams[conversationID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.remove(conversationID, sub)
		})
	}
	return sub, cancel
}

// Publish delivers the event to every subscriber of the conversation.
// Never blocks: subscribers that cannot keep up are dropped.
func (h *Hub) Publish(conversationID string, event Event) {
	h.mu.RLock()
	set := h.streams[conversationID]
	slow := make([]*Subscriber, 0)
	for sub := range set {
		select {
		case sub.ch <- event:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.log.Warn().Str("conversation_id", conversationID).Msg("dropping slow subscriber")
		h.remove(conversationID, sub)
	}
}

// SubscriberCount returns the number of live subscribers for the
// conversation.
func (h *Hub) SubscriberCount(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[conversationID])
}

func (h *Hub) remove(conversationID string, sub *Subscriber) {
	h.mu.Lock()
	set, ok := h.streams[conversationID]
	if ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub.ch)
			metrics.RealtimeSubscribers.Dec()
		}
		if len(set) == 0 {
			delete(h.streams, conversationID)
		}
	}
	h.mu.Unlock()
}
