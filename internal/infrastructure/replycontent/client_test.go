package replycontent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/autoreply"
)

func TestResolveFromContentService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reply-templates" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "booking" {
			t.Errorf("category = %q", r.URL.Query().Get("category"))
		}
		if r.URL.Query().Get("language") != "en" {
			t.Errorf("language = %q", r.URL.Query().Get("language"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"body":"We will confirm your booking shortly."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	body, err := client.Resolve(context.Background(), autoreply.CategoryBooking, "en")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if body != "We will confirm your booking shortly." {
		t.Errorf("body = %q", body)
	}
}

func TestResolveFallsBackWhenUnconfigured(t *testing.T) {
	client := NewClient("", zerolog.Nop())

	body, err := client.Resolve(context.Background(), autoreply.CategoryPayment, "en")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !strings.Contains(body, "payment") {
		t.Errorf("expected the payment fallback, got %q", body)
	}
}

func TestResolveFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	body, err := client.Resolve(context.Background(), autoreply.CategoryGeneric, "vi")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if body == "" {
		t.Error("expected a fallback body")
	}
}

func TestResolveFallsBackOnEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"body":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	body, err := client.Resolve(context.Background(), autoreply.CategoryCancellation, "en")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !strings.Contains(body, "cancellation") {
		t.Errorf("expected the cancellation fallback, got %q", body)
	}
}

func TestFallbackUnknownLanguageUsesEnglish(t *testing.T) {
	client := NewClient("", zerolog.Nop())

	body, err := client.Resolve(context.Background(), autoreply.CategoryGeneric, "fr")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	english, _ := client.Resolve(context.Background(), autoreply.CategoryGeneric, "en")
	if body != english {
		t.Errorf("unknown language should fall back to English, got %q", body)
	}
}
