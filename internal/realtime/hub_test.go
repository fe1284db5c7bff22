package realtime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/chat"
)

func TestHubPublishDelivers(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())

	sub, cancel := hub.Subscribe("conv_1")
	defer cancel()

	msg := &chat.Message{PublicID: "msg_1", Body: "hello"}
	hub.Publish("conv_1", Event{Name: EventMessage, Message: msg})

	select {
	case event := <-sub.Events():
		if event.Name != EventMessage {
			t.Errorf("event name = %q, want %q", event.Name, EventMessage)
		}
		if event.Message.PublicID != "msg_1" {
			t.Errorf("message id = %q, want msg_1", event.Message.PublicID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestHubIsolatesConversations(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())

	sub, cancel := hub.Subscribe("conv_1")
	defer cancel()

	hub.Publish("conv_2", Event{Name: EventMessage, Message: &chat.Message{PublicID: "msg_other"}})

	select {
	case event := <-sub.Events():
		t.Fatalf("received event for another conversation: %v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())

	subA, cancelA := hub.Subscribe("conv_1")
	defer cancelA()
	subB, cancelB := hub.Subscribe("conv_1")
	defer cancelB()

	if got := hub.SubscriberCount("conv_1"); got != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", got)
	}

	hub.Publish("conv_1", Event{Name: EventMessage, Message: &chat.Message{PublicID: "msg_1"}})

	for _, sub := range []*Subscriber{subA, subB} {
		select {
		case event := <-sub.Events():
			if event.Message.PublicID != "msg_1" {
				t.Errorf("message id = %q, want msg_1", event.Message.PublicID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out")
		}
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())

	sub, cancel := hub.Subscribe("conv_1")
	defer cancel()

	// Fill the buffer, then overflow it. The subscriber never drains.
	hub.Publish("conv_1", Event{Name: EventMessage, Message: &chat.Message{PublicID: "msg_1"}})
	hub.Publish("conv_1", Event{Name: EventMessage, Message: &chat.Message{PublicID: "msg_2"}})

	if got := hub.SubscriberCount("conv_1"); got != 0 {
		t.Fatalf("SubscriberCount = %d, want 0 after drop", got)
	}

	// The buffered event is still readable, then the channel closes.
	if _, ok := <-sub.Events(); !ok {
		t.Fatal("expected the buffered event before close")
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected the channel to be closed")
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())

	_, cancel := hub.Subscribe("conv_1")
	cancel()
	cancel() // must not panic or double-close

	if got := hub.SubscriberCount("conv_1"); got != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", got)
	}

	// Publishing to a conversation with no subscribers is a no-op.
	hub.Publish("conv_1", Event{Name: EventMessage, Message: &chat.Message{PublicID: "msg_1"}})
}

func TestMergeMessages(t *testing.T) {
	at := func(sec int64) time.Time { return time.Unix(1700000000+sec, 0) }

	snapshot := []*chat.Message{
		{ID: 3, PublicID: "msg_c", CreatedAt: at(3)},
		{ID: 2, PublicID: "msg_b", CreatedAt: at(2)},
		{ID: 1, PublicID: "msg_a", CreatedAt: at(1)},
	}
	live := []*chat.Message{
		{ID: 3, PublicID: "msg_c", CreatedAt: at(3)}, // duplicate of snapshot tail
		{ID: 4, PublicID: "msg_d", CreatedAt: at(4)},
	}

	merged := MergeMessages(snapshot, live)

	want := []string{"msg_a", "msg_b", "msg_c", "msg_d"}
	if len(merged) != len(want) {
		t.Fatalf("merged %d messages, want %d", len(merged), len(want))
	}
	for i, id := range want {
		if merged[i].PublicID != id {
			t.Errorf("merged[%d] = %q, want %q", i, merged[i].PublicID, id)
		}
	}
}

func TestMergeMessagesTieBreakByID(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	snapshot := []*chat.Message{
		{ID: 2, PublicID: "msg_b", CreatedAt: ts},
		{ID: 1, PublicID: "msg_a", CreatedAt: ts},
	}

	merged := MergeMessages(snapshot, nil)
	if merged[0].PublicID != "msg_a" || merged[1].PublicID != "msg_b" {
		t.Errorf("equal timestamps must order by insertion id, got %q then %q", merged[0].PublicID, merged[1].PublicID)
	}
}

func TestMergeMessagesEmptyInputs(t *testing.T) {
	if got := MergeMessages(nil, nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}

	live := []*chat.Message{{ID: 1, PublicID: "msg_a", CreatedAt: time.Unix(1700000000, 0)}}
	if got := MergeMessages(nil, live); len(got) != 1 {
		t.Errorf("expected 1 message, got %d", len(got))
	}
}
