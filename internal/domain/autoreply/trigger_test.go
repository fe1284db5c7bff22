package autoreply

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/chat"
)

type stubContent struct {
	resolveFunc func(ctx context.Context, category Category, language string) (string, error)
}

func (s *stubContent) Resolve(ctx context.Context, category Category, language string) (string, error) {
	return s.resolveFunc(ctx, category, language)
}

func newTestTrigger(settings Settings, content ContentProvider) *Trigger {
	if content == nil {
		content = &stubContent{resolveFunc: func(ctx context.Context, category Category, language string) (string, error) {
			return "reply", nil
		}}
	}
	return NewTrigger(settings, content, zerolog.Nop())
}

func TestShouldFire(t *testing.T) {
	tests := []struct {
		name       string
		settings   Settings
		convType   chat.ConversationType
		senderType chat.SenderType
		want       bool
	}{
		{
			name:       "auto mode private customer message",
			settings:   Settings{Enabled: true, Mode: ModeAuto, AllowPrivate: true},
			convType:   chat.ConversationTypePrivate,
			senderType: chat.SenderUser,
			want:       true,
		},
		{
			name:       "auto mode public allowed",
			settings:   Settings{Enabled: true, Mode: ModeAuto, AllowPublic: true},
			convType:   chat.ConversationTypePublic,
			senderType: chat.SenderUser,
			want:       true,
		},
		{
			name:       "disabled",
			settings:   Settings{Enabled: false, Mode: ModeAuto, AllowPrivate: true},
			convType:   chat.ConversationTypePrivate,
			senderType: chat.SenderUser,
			want:       false,
		},
		{
			name:       "off mode",
			settings:   Settings{Enabled: true, Mode: ModeOff, AllowPrivate: true},
			convType:   chat.ConversationTypePrivate,
			senderType: chat.SenderUser,
			want:       false,
		},
		{
			name:       "handoff mode never auto-fires",
			settings:   Settings{Enabled: true, Mode: ModeHandoff, AllowPrivate: true},
			convType:   chat.ConversationTypePrivate,
			senderType: chat.SenderUser,
			want:       false,
		},
		{
			name:       "public not allowed",
			settings:   Settings{Enabled: true, Mode: ModeAuto, AllowPrivate: true},
			convType:   chat.ConversationTypePublic,
			senderType: chat.SenderUser,
			want:       false,
		},
		{
			name:       "admin message never triggers",
			settings:   Settings{Enabled: true, Mode: ModeAuto, AllowPrivate: true},
			convType:   chat.ConversationTypePrivate,
			senderType: chat.SenderAdmin,
			want:       false,
		},
		{
			name:       "system message never triggers",
			settings:   Settings{Enabled: true, Mode: ModeAuto, AllowPrivate: true},
			convType:   chat.ConversationTypePrivate,
			senderType: chat.SenderSystem,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := newTestTrigger(tt.settings, nil)
			if got := trigger.ShouldFire(tt.convType, tt.senderType); got != tt.want {
				t.Errorf("ShouldFire() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldHandoff(t *testing.T) {
	settings := Settings{Enabled: true, Mode: ModeHandoff, AllowPrivate: true}
	trigger := newTestTrigger(settings, nil)

	if !trigger.ShouldHandoff(chat.ConversationTypePrivate, chat.SenderUser) {
		t.Error("customer message in handoff mode should hand off")
	}
	if trigger.ShouldHandoff(chat.ConversationTypePublic, chat.SenderUser) {
		t.Error("public channel not allowed, should not hand off")
	}
	if trigger.ShouldHandoff(chat.ConversationTypePrivate, chat.SenderAdmin) {
		t.Error("staff messages never hand off")
	}

	autoTrigger := newTestTrigger(Settings{Enabled: true, Mode: ModeAuto, AllowPrivate: true}, nil)
	if autoTrigger.ShouldHandoff(chat.ConversationTypePrivate, chat.SenderUser) {
		t.Error("auto mode should not hand off")
	}
}

func TestClassify(t *testing.T) {
	trigger := newTestTrigger(Settings{Languages: []string{"en", "vi"}}, nil)

	tests := []struct {
		name         string
		body         string
		wantCategory Category
		wantLanguage string
	}{
		{"booking english", "Hi, I want to book a tour for next week", CategoryBooking, "en"},
		{"payment english", "My refund has not arrived yet", CategoryPayment, "en"},
		{"cancellation english", "I need to change date of my trip", CategoryCancellation, "en"},
		{"case insensitive", "CAN I PAY BY CARD?", CategoryPayment, "en"},
		{"booking vietnamese", "tôi muốn đặt chỗ cho chuyến đi này", CategoryBooking, "vi"},
		{"payment vietnamese", "khi nào được hoàn tiền?", CategoryPayment, "vi"},
		{"cancellation vietnamese", "cho mình dời lịch sang tuần sau", CategoryCancellation, "vi"},
		{"no keyword falls back to generic", "hello there", CategoryGeneric, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, language := trigger.Classify(tt.body)
			if category != tt.wantCategory {
				t.Errorf("category = %q, want %q", category, tt.wantCategory)
			}
			if language != tt.wantLanguage {
				t.Errorf("language = %q, want %q", language, tt.wantLanguage)
			}
		})
	}
}

func TestClassifyCategoryPrecedence(t *testing.T) {
	trigger := newTestTrigger(Settings{Languages: []string{"en"}}, nil)

	// "cancel my booking" matches both; booking is checked first.
	category, _ := trigger.Classify("cancel my booking please")
	if category != CategoryBooking {
		t.Errorf("category = %q, want %q", category, CategoryBooking)
	}
}

func TestBuildReply(t *testing.T) {
	var gotCategory Category
	var gotLanguage string
	content := &stubContent{resolveFunc: func(ctx context.Context, category Category, language string) (string, error) {
		gotCategory = category
		gotLanguage = language
		return "Thanks, an agent will confirm your booking shortly.", nil
	}}
	trigger := newTestTrigger(Settings{Languages: []string{"en"}}, content)

	reply, err := trigger.BuildReply(context.Background(), "I want to book a tour", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply == "" {
		t.Fatal("expected a reply body")
	}
	if gotCategory != CategoryBooking {
		t.Errorf("resolved category = %q, want %q", gotCategory, CategoryBooking)
	}
	if gotLanguage != "en" {
		t.Errorf("resolved language = %q, want en", gotLanguage)
	}
}

func TestBuildReplyExplicitLanguageWins(t *testing.T) {
	var gotLanguage string
	content := &stubContent{resolveFunc: func(ctx context.Context, category Category, language string) (string, error) {
		gotLanguage = language
		return "ok", nil
	}}
	trigger := newTestTrigger(Settings{Languages: []string{"en", "vi"}}, content)

	if _, err := trigger.BuildReply(context.Background(), "book a tour", "vi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLanguage != "vi" {
		t.Errorf("resolved language = %q, want vi", gotLanguage)
	}
}

func TestBuildReplyPropagatesProviderError(t *testing.T) {
	content := &stubContent{resolveFunc: func(ctx context.Context, category Category, language string) (string, error) {
		return "", errors.New("template service unavailable")
	}}
	trigger := newTestTrigger(Settings{Languages: []string{"en"}}, content)

	if _, err := trigger.BuildReply(context.Background(), "book a tour", "en"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}
