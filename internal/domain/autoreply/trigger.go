package autoreply

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/chat"
)

// Mode controls what happens after a customer message arrives.
type Mode string

const (
	ModeOff     Mode = "off"
	ModeAuto    Mode = "auto"
	ModeHandoff Mode = "handoff"
)

// Settings is the global auto-reply configuration.
type Settings struct {
	Enabled      bool
	Mode         Mode
	AllowPublic  bool
	AllowPrivate bool
	Languages    []string
}

// Category is the detected topic of a triggering message, used to pick a
// templated response variant.
type Category string

const (
	CategoryBooking      Category = "booking"
	CategoryPayment      Category = "payment"
	CategoryCancellation Category = "cancellation"
	CategoryGeneric      Category = "generic"
)

// ContentProvider resolves the reply body for a category and language.
type ContentProvider interface {
	Resolve(ctx context.Context, category Category, language string) (string, error)
}

// categoryKeywords maps language -> category -> keywords. Matching is
// case-insensitive substring search; first hit wins in the order below.
var categoryKeywords = map[string]map[Category][]string{
	"en": {
		CategoryBooking:      {"book", "reservation", "tour", "availability", "schedule"},
		CategoryPayment:      {"pay", "payment", "invoice", "refund", "price", "cost"},
		CategoryCancellation: {"cancel", "cancellation", "reschedule", "change date"},
	},
	"vi": {
		CategoryBooking:      {"đặt", "đặt chỗ", "tour", "lịch trình", "còn chỗ"},
		CategoryPayment:      {"thanh toán", "hóa đơn", "hoàn tiền", "giá"},
		CategoryCancellation: {"hủy", "huỷ", "đổi ngày", "dời lịch"},
	},
}

var categoryOrder = []Category{CategoryBooking, CategoryPayment, CategoryCancellation}

// Trigger decides whether an automated first response fires and, when it
// does, resolves the reply content. Content generation is delegated to
// the provider; failures here are logged by callers and never surfaced
// to the original sender.
type Trigger struct {
	settings Settings
	content  ContentProvider
	log      zerolog.Logger
}

// NewTrigger constructs the trigger.
func NewTrigger(settings Settings, content ContentProvider, log zerolog.Logger) *Trigger {
	return &Trigger{
		settings: settings,
		content:  content,
		log:      log.With().Str("component", "auto-reply").Logger(),
	}
}

// ShouldFire reports whether an automated reply is permitted for a
// message of the given sender type in a conversation of the given type.
// Pure: the decision depends only on settings and arguments.
func (t *Trigger) ShouldFire(convType chat.ConversationType, senderType chat.SenderType) bool {
	return t.settings.Enabled && t.settings.Mode == ModeAuto && t.eligible(convType, senderType)
}

// ShouldHandoff reports whether the message should be routed to a human
// instead, per handoff mode.
func (t *Trigger) ShouldHandoff(convType chat.ConversationType, senderType chat.SenderType) bool {
	return t.settings.Enabled && t.settings.Mode == ModeHandoff && t.eligible(convType, senderType)
}

func (t *Trigger) eligible(convType chat.ConversationType, senderType chat.SenderType) bool {
	// Only customer-side messages draw an automated response.
	if senderType != chat.SenderUser {
		return false
	}
	switch convType {
	case chat.ConversationTypePublic:
		return t.settings.AllowPublic
	case chat.ConversationTypePrivate:
		return t.settings.AllowPrivate
	}
	return false
}

// Classify detects the message category via keyword matching across the
// configured languages. Best-effort: unknown content falls back to the
// generic variant.
func (t *Trigger) Classify(body string) (Category, string) {
	lowered := strings.ToLower(body)
	for _, lang := range t.settings.Languages {
		keywords, ok := categoryKeywords[lang]
		if !ok {
			continue
		}
		for _, category := range categoryOrder {
			for _, keyword := range keywords[category] {
				if strings.Contains(lowered, keyword) {
					return category, lang
				}
			}
		}
	}
	lang := "en"
	if len(t.settings.Languages) > 0 {
		lang = t.settings.Languages[0]
	}
	return CategoryGeneric, lang
}

// BuildReply classifies the triggering body and resolves the templated
// response variant for it.
func (t *Trigger) BuildReply(ctx context.Context, body, language string) (string, error) {
	category, detected := t.Classify(body)
	if language == "" {
		language = detected
	}
	t.log.Debug().
		Str("category", string(category)).
		Str("language", language).
		Msg("auto-reply classified")
	return t.content.Resolve(ctx, category, language)
}
