package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/retry"
)

func TestNotifyHandoffDeliversPayload(t *testing.T) {
	var received Payload
	var gotEvent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-Support-Event")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, zerolog.Nop())
	err := service.NotifyHandoff(context.Background(), "conv_private7", "I want to cancel my trip", "en")
	if err != nil {
		t.Fatalf("NotifyHandoff() error: %v", err)
	}

	if gotEvent != "support.handoff" {
		t.Errorf("X-Support-Event = %q", gotEvent)
	}
	if received.ConversationID != "conv_private7" {
		t.Errorf("conversation_id = %q", received.ConversationID)
	}
	if received.Event != "support.handoff" {
		t.Errorf("event = %q", received.Event)
	}
	if received.Preview != "I want to cancel my trip" {
		t.Errorf("preview = %q", received.Preview)
	}
	if received.Language != "en" {
		t.Errorf("language = %q", received.Language)
	}
	if received.OccurredAt == "" {
		t.Error("occurred_at missing")
	}
}

func TestNotifyReplyFailedDeliversErrorDetails(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, zerolog.Nop())
	err := service.NotifyReplyFailed(context.Background(), "conv_private7", 42, "content service unavailable")
	if err != nil {
		t.Fatalf("NotifyReplyFailed() error: %v", err)
	}

	if received.Event != "support.reply_failed" {
		t.Errorf("event = %q", received.Event)
	}
	if received.JobID != 42 {
		t.Errorf("job_id = %d, want 42", received.JobID)
	}
	if received.Error == nil || received.Error.Code != "reply_job_failed" {
		t.Errorf("error details = %+v", received.Error)
	}
}

func TestBlankURLIsNoOp(t *testing.T) {
	service := NewHTTPService("", zerolog.Nop())

	if err := service.NotifyHandoff(context.Background(), "conv_1", "hello", "en"); err != nil {
		t.Errorf("blank URL handoff should be a no-op, got %v", err)
	}
	if err := service.NotifyReplyFailed(context.Background(), "conv_1", 1, "boom"); err != nil {
		t.Errorf("blank URL failure notice should be a no-op, got %v", err)
	}
}

func TestNonSuccessStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, zerolog.Nop())
	service.policy = retry.NoRetryPolicy()

	if err := service.NotifyHandoff(context.Background(), "conv_1", "hello", "en"); err == nil {
		t.Fatal("expected delivery error for 502 response")
	}
}
