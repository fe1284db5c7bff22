package replycontent

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/autoreply"
)

// Client resolves auto-reply bodies from the content service, falling
// back to built-in templates when the service is unconfigured or
// unavailable. Implements autoreply.ContentProvider.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a Resty-backed client. An empty baseURL disables
// remote lookups entirely; the built-in templates are used instead.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second),
		baseURL: baseURL,
		log:     log.With().Str("component", "reply-content").Logger(),
	}
}

type contentResponse struct {
	Body string `json:"body"`
}

// Resolve fetches the templated reply for a category and language.
func (c *Client) Resolve(ctx context.Context, category autoreply.Category, language string) (string, error) {
	if c.baseURL == "" {
		return fallback(category, language)
	}

	var content contentResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("category", string(category)).
		SetQueryParam("language", language).
		SetResult(&content).
		Get("/v1/reply-templates")
	if err != nil {
		c.log.Warn().Err(err).Msg("content service unreachable, using fallback")
		return fallback(category, language)
	}
	if resp.IsError() || content.Body == "" {
		c.log.Warn().Int("status", resp.StatusCode()).Msg("content service error, using fallback")
		return fallback(category, language)
	}

	return content.Body, nil
}

// Ensure interface compliance.
var _ autoreply.ContentProvider = (*Client)(nil)

var fallbackTemplates = map[string]map[autoreply.Category]string{
	"en": {
		autoreply.CategoryBooking:      "Thanks for reaching out! An agent will confirm availability for your trip shortly. You can also check live availability on the tour page.",
		autoreply.CategoryPayment:      "Thanks for your message! For payment and refund questions an agent will follow up shortly. Invoices are available under your bookings.",
		autoreply.CategoryCancellation: "We received your cancellation request. An agent will confirm the change shortly. Most tours can be rescheduled free of charge up to 48 hours before departure.",
		autoreply.CategoryGeneric:      "Thanks for contacting us! A support agent will get back to you shortly.",
	},
	"vi": {
		autoreply.CategoryBooking:      "Cảm ơn bạn đã liên hệ! Nhân viên sẽ sớm xác nhận chỗ trống cho chuyến đi của bạn. Bạn cũng có thể xem tình trạng chỗ trên trang tour.",
		autoreply.CategoryPayment:      "Cảm ơn bạn! Nhân viên sẽ sớm hỗ trợ các câu hỏi về thanh toán và hoàn tiền. Hóa đơn có trong mục đặt chỗ của bạn.",
		autoreply.CategoryCancellation: "Chúng tôi đã nhận yêu cầu hủy của bạn. Nhân viên sẽ sớm xác nhận thay đổi. Hầu hết các tour có thể dời lịch miễn phí trước 48 giờ khởi hành.",
		autoreply.CategoryGeneric:      "Cảm ơn bạn đã liên hệ! Nhân viên hỗ trợ sẽ phản hồi sớm nhất có thể.",
	},
}

func fallback(category autoreply.Category, language string) (string, error) {
	templates, ok := fallbackTemplates[language]
	if !ok {
		templates = fallbackTemplates["en"]
	}
	if body, ok := templates[category]; ok {
		return body, nil
	}
	if body, ok := templates[autoreply.CategoryGeneric]; ok {
		return body, nil
	}
	return "", fmt.Errorf("no reply template for category %s", category)
}
