package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/retry"
)

// HTTPService implements webhook notifications via HTTP POST. A blank
// URL disables delivery, turning every notification into a no-op.
type HTTPService struct {
	httpClient *http.Client
	url        string
	log        zerolog.Logger
	policy     retry.Policy
}

// NewHTTPService creates a new HTTP-based webhook service.
func NewHTTPService(url string, log zerolog.Logger) *HTTPService {
	return &HTTPService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:    url,
		log:    log.With().Str("component", "webhook").Logger(),
		policy: retry.ConservativePolicy(),
	}
}

// NotifyHandoff signals that a customer message needs a human response.
func (s *HTTPService) NotifyHandoff(ctx context.Context, conversationID, messagePreview, language string) error {
	if s.url == "" {
		s.log.Debug().Str("conversation_id", conversationID).Msg("no webhook URL configured, skipping notification")
		return nil
	}

	payload := Payload{
		ConversationID: conversationID,
		Event:          "support.handoff",
		Preview:        messagePreview,
		Language:       language,
		OccurredAt:     timestamp(),
	}

	return s.send(ctx, payload)
}

// NotifyReplyFailed signals that an automated reply could not be produced.
func (s *HTTPService) NotifyReplyFailed(ctx context.Context, conversationID string, jobID uint, errorMessage string) error {
	if s.url == "" {
		s.log.Debug().Str("conversation_id", conversationID).Msg("no webhook URL configured, skipping notification")
		return nil
	}

	payload := Payload{
		ConversationID: conversationID,
		Event:          "support.reply_failed",
		JobID:          jobID,
		Error:          &ErrorDetails{Code: "reply_job_failed", Message: errorMessage},
		OccurredAt:     timestamp(),
	}

	return s.send(ctx, payload)
}

func (s *HTTPService) send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	executor := retry.NewExecutor(s.policy)
	return executor.Execute(ctx, func(ctx context.Context, attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "travelbook-support-api/1.0")
		req.Header.Set("X-Support-Event", payload.Event)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Str("url", s.url).Int("attempt", attempt).Msg("webhook delivery failed")
			return fmt.Errorf("send webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().
				Str("url", s.url).
				Int("status", resp.StatusCode).
				Str("conversation_id", payload.ConversationID).
				Msg("webhook delivered successfully")
			return nil
		}

		s.log.Warn().Int("status", resp.StatusCode).Str("url", s.url).Int("attempt", attempt).Msg("webhook delivery failed")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	})
}
