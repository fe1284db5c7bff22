package chat

import (
	"testing"
	"time"
)

func TestMessageBefore(t *testing.T) {
	base := time.Unix(1700000000, 0)

	tests := []struct {
		name string
		a, b Message
		want bool
	}{
		{
			name: "earlier timestamp sorts first",
			a:    Message{ID: 2, CreatedAt: base},
			b:    Message{ID: 1, CreatedAt: base.Add(time.Second)},
			want: true,
		},
		{
			name: "later timestamp sorts after",
			a:    Message{ID: 1, CreatedAt: base.Add(time.Second)},
			b:    Message{ID: 2, CreatedAt: base},
			want: false,
		},
		{
			name: "equal timestamps break the tie by id",
			a:    Message{ID: 1, CreatedAt: base},
			b:    Message{ID: 2, CreatedAt: base},
			want: true,
		},
		{
			name: "identical messages are not before themselves",
			a:    Message{ID: 1, CreatedAt: base},
			b:    Message{ID: 1, CreatedAt: base},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(&tt.b); got != tt.want {
				t.Errorf("Before() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageUnreadTarget(t *testing.T) {
	tests := []struct {
		sender SenderType
		want   CounterTarget
	}{
		{SenderUser, CounterStaff},
		{SenderSystem, CounterStaff},
		{SenderAI, CounterStaff},
		{SenderAdmin, CounterCustomer},
	}

	for _, tt := range tests {
		msg := Message{SenderType: tt.sender}
		if got := msg.UnreadTarget(); got != tt.want {
			t.Errorf("UnreadTarget(%s) = %q, want %q", tt.sender, got, tt.want)
		}
	}
}

func TestConversationOwnership(t *testing.T) {
	customerID := "cust-1"
	guestID := "guest-12345678"
	conv := Conversation{Type: ConversationTypePrivate, CustomerID: &customerID, GuestID: &guestID}

	if !conv.OwnedByCustomer("cust-1") {
		t.Error("owner must match")
	}
	if conv.OwnedByCustomer("cust-2") {
		t.Error("non-owner must not match")
	}
	if !conv.OwnedByGuest("guest-12345678") {
		t.Error("owning guest must match")
	}
	if conv.OwnedByGuest("guest-87654321") {
		t.Error("foreign guest must not match")
	}

	unowned := Conversation{Type: ConversationTypePublic}
	if unowned.OwnedByCustomer("cust-1") || unowned.OwnedByGuest("guest-12345678") {
		t.Error("unowned conversation has no owner")
	}
}

func TestConversationTypeValid(t *testing.T) {
	if !ConversationTypePublic.Valid() || !ConversationTypePrivate.Valid() {
		t.Error("known types must be valid")
	}
	if ConversationType("broadcast").Valid() {
		t.Error("unknown type must be invalid")
	}
}
