package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/config"
	"travelbook/services/support-api/internal/domain/autoreply"
	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/domain/ratelimit"
	"travelbook/services/support-api/internal/infrastructure/auth"
	"travelbook/services/support-api/internal/realtime"
)

// ===============================================
// Test fixtures
// ===============================================

type conversationRepoStub struct {
	createFunc           func(ctx context.Context, conversation *chat.Conversation) error
	findByPublicIDFunc   func(ctx context.Context, publicID string) (*chat.Conversation, error)
	findByIDFunc         func(ctx context.Context, id uint) (*chat.Conversation, error)
	getOrCreateGuestFunc func(ctx context.Context, guestID string) (*chat.Conversation, error)
	findByFilterFunc     func(ctx context.Context, filter chat.ConversationFilter, pagination *chat.Pagination) ([]*chat.Conversation, error)
	attachCustomerFunc   func(ctx context.Context, conversationID uint, customerID string) error
	resetUnreadFunc      func(ctx context.Context, conversationID uint, target chat.CounterTarget) error
}

func (s *conversationRepoStub) Create(ctx context.Context, conversation *chat.Conversation) error {
	return s.createFunc(ctx, conversation)
}

func (s *conversationRepoStub) FindByPublicID(ctx context.Context, publicID string) (*chat.Conversation, error) {
	return s.findByPublicIDFunc(ctx, publicID)
}

func (s *conversationRepoStub) FindByID(ctx context.Context, id uint) (*chat.Conversation, error) {
	return s.findByIDFunc(ctx, id)
}

func (s *conversationRepoStub) GetOrCreateGuest(ctx context.Context, guestID string) (*chat.Conversation, error) {
	return s.getOrCreateGuestFunc(ctx, guestID)
}

func (s *conversationRepoStub) FindByFilter(ctx context.Context, filter chat.ConversationFilter, pagination *chat.Pagination) ([]*chat.Conversation, error) {
	return s.findByFilterFunc(ctx, filter, pagination)
}

func (s *conversationRepoStub) AttachCustomer(ctx context.Context, conversationID uint, customerID string) error {
	return s.attachCustomerFunc(ctx, conversationID, customerID)
}

func (s *conversationRepoStub) ResetUnread(ctx context.Context, conversationID uint, target chat.CounterTarget) error {
	return s.resetUnreadFunc(ctx, conversationID, target)
}

type messageRepoStub struct {
	recordFunc func(ctx context.Context, message *chat.Message) error
	listFunc   func(ctx context.Context, conversationID uint, page chat.MessagePage) ([]*chat.Message, error)
}

func (s *messageRepoStub) Record(ctx context.Context, message *chat.Message) error {
	return s.recordFunc(ctx, message)
}

func (s *messageRepoStub) ListByConversation(ctx context.Context, conversationID uint, page chat.MessagePage) ([]*chat.Message, error) {
	return s.listFunc(ctx, conversationID, page)
}

type noopContent struct{}

func (noopContent) Resolve(ctx context.Context, category autoreply.Category, language string) (string, error) {
	return "automated reply", nil
}

func strPtr(s string) *string { return &s }

type testEnv struct {
	conversations *conversationRepoStub
	messages      *messageRepoStub
	limiter       *ratelimit.Limiter
	hub           *realtime.Hub
	token         *jwt.Token
}

func newTestEnv() *testEnv {
	return &testEnv{
		conversations: &conversationRepoStub{},
		messages: &messageRepoStub{
			recordFunc: func(ctx context.Context, message *chat.Message) error { return nil },
		},
		limiter: ratelimit.New(0),
		hub:     realtime.NewHub(4, zerolog.Nop()),
	}
}

func (e *testEnv) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{StaffRoles: []string{"support_agent", "support_admin"}}
	trigger := autoreply.NewTrigger(autoreply.Settings{Languages: []string{"en"}}, noopContent{}, zerolog.Nop())
	service := messaging.NewService(
		e.conversations,
		e.messages,
		e.limiter,
		e.hub,
		nil,
		trigger,
		nil,
		messaging.Settings{FetchDefaultLimit: 30, FetchMaxLimit: 60},
		zerolog.Nop(),
	)

	conversationHandler := NewConversationHandler(cfg, service, zerolog.Nop())
	messageHandler := NewMessageHandler(cfg, service, zerolog.Nop())

	router := gin.New()
	if e.token != nil {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextTokenKey, e.token)
			c.Next()
		})
	}

	v1 := router.Group("/v1")
	v1.POST("/conversations/guest", conversationHandler.Bootstrap)
	v1.GET("/conversations", conversationHandler.List)
	v1.GET("/conversations/:conversation_id", conversationHandler.Get)
	v1.POST("/conversations/:conversation_id/read", conversationHandler.MarkRead)
	v1.POST("/conversations/:conversation_id/messages", messageHandler.Send)
	v1.GET("/conversations/:conversation_id/messages", messageHandler.List)
	return router
}

func customerToken(sub string) *jwt.Token {
	return &jwt.Token{Valid: true, Claims: jwt.MapClaims{"sub": sub}}
}

func staffToken(sub string) *jwt.Token {
	return &jwt.Token{Valid: true, Claims: jwt.MapClaims{"sub": sub, "role": "support_agent"}}
}

func decodeData(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

// ===============================================
// Bootstrap
// ===============================================

func TestBootstrapAsGuest(t *testing.T) {
	env := newTestEnv()
	conv := &chat.Conversation{ID: 5, PublicID: "conv_g5", Type: chat.ConversationTypePrivate, GuestID: strPtr("guest-12345678")}
	env.conversations.getOrCreateGuestFunc = func(ctx context.Context, guestID string) (*chat.Conversation, error) {
		return conv, nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/guest", nil)
	req.Header.Set(GuestIDHeader, "guest-12345678")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec.Body.Bytes())
	if data["id"] != "conv_g5" {
		t.Errorf("conversation id = %v", data["id"])
	}
	if data["type"] != "private" {
		t.Errorf("conversation type = %v", data["type"])
	}
}

func TestBootstrapWithoutIdentity(t *testing.T) {
	env := newTestEnv()
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/guest", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBootstrapRejectsMalformedGuestID(t *testing.T) {
	env := newTestEnv()
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/guest", nil)
	req.Header.Set(GuestIDHeader, "bad id; drop table")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBootstrapCustomerPromotesGuestThread(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-1")
	guestThread := &chat.Conversation{ID: 11, PublicID: "conv_g11", Type: chat.ConversationTypePrivate, GuestID: strPtr("guest-12345678")}
	env.conversations.findByFilterFunc = func(ctx context.Context, filter chat.ConversationFilter, pagination *chat.Pagination) ([]*chat.Conversation, error) {
		if filter.GuestID != nil {
			return []*chat.Conversation{guestThread}, nil
		}
		return nil, nil
	}
	attached := false
	env.conversations.attachCustomerFunc = func(ctx context.Context, conversationID uint, customerID string) error {
		attached = true
		return nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/guest", nil)
	req.Header.Set(GuestIDHeader, "guest-12345678")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if !attached {
		t.Error("guest thread was not promoted")
	}
	data := decodeData(t, rec.Body.Bytes())
	if data["customer_id"] != "cust-1" {
		t.Errorf("customer_id = %v, want cust-1", data["customer_id"])
	}
}

// ===============================================
// Inbox and single conversation
// ===============================================

func TestListConversationsRequiresStaff(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-1")
	env.conversations.findByFilterFunc = func(ctx context.Context, filter chat.ConversationFilter, pagination *chat.Pagination) ([]*chat.Conversation, error) {
		return nil, nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestListConversationsAsStaff(t *testing.T) {
	env := newTestEnv()
	env.token = staffToken("staff-1")
	var gotPagination *chat.Pagination
	env.conversations.findByFilterFunc = func(ctx context.Context, filter chat.ConversationFilter, pagination *chat.Pagination) ([]*chat.Conversation, error) {
		gotPagination = pagination
		return []*chat.Conversation{
			{ID: 1, PublicID: "conv_a", Type: chat.ConversationTypePrivate, CustomerID: strPtr("cust-1")},
			{ID: 2, PublicID: "conv_b", Type: chat.ConversationTypePrivate, GuestID: strPtr("guest-12345678")},
		}, nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations?page=2&page_size=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if gotPagination == nil || gotPagination.Page != 2 || gotPagination.PageSize != 10 {
		t.Errorf("pagination = %+v, want page 2 size 10", gotPagination)
	}

	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Errorf("got %d conversations, want 2", len(envelope.Data))
	}
}

func TestGetConversationDeniedForStranger(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-2")
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return &chat.Conversation{ID: 7, PublicID: publicID, Type: chat.ConversationTypePrivate, CustomerID: strPtr("cust-1")}, nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv_private7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-1")
	conv := &chat.Conversation{ID: 7, PublicID: "conv_private7", Type: chat.ConversationTypePrivate, CustomerID: strPtr("cust-1"), UnreadCustomer: 3}
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return conv, nil
	}
	var gotTarget chat.CounterTarget
	env.conversations.resetUnreadFunc = func(ctx context.Context, conversationID uint, target chat.CounterTarget) error {
		gotTarget = target
		conv.UnreadCustomer = 0
		return nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/conv_private7/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if gotTarget != chat.CounterCustomer {
		t.Errorf("target = %q, want customer", gotTarget)
	}
	data := decodeData(t, rec.Body.Bytes())
	if data["unread_customer"] != float64(0) {
		t.Errorf("unread_customer = %v, want 0", data["unread_customer"])
	}
}

func TestMarkReadStaffTargetsCustomerCounter(t *testing.T) {
	env := newTestEnv()
	env.token = staffToken("staff-1")
	conv := &chat.Conversation{ID: 7, PublicID: "conv_private7", Type: chat.ConversationTypePrivate, CustomerID: strPtr("cust-1"), UnreadCustomer: 2}
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return conv, nil
	}
	var gotTarget chat.CounterTarget
	env.conversations.resetUnreadFunc = func(ctx context.Context, conversationID uint, target chat.CounterTarget) error {
		gotTarget = target
		conv.UnreadCustomer = 0
		return nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/conv_private7/read", strings.NewReader(`{"target":"user"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if gotTarget != chat.CounterCustomer {
		t.Errorf("target = %q, want customer", gotTarget)
	}
}

func TestMarkReadCustomerCannotTargetStaffCounter(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-1")
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return &chat.Conversation{ID: 7, PublicID: publicID, Type: chat.ConversationTypePrivate, CustomerID: strPtr("cust-1")}, nil
	}
	env.conversations.resetUnreadFunc = func(ctx context.Context, conversationID uint, target chat.CounterTarget) error {
		t.Fatal("counter must not be reset")
		return nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/conv_private7/read", strings.NewReader(`{"target":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body: %s", rec.Code, rec.Body.String())
	}
}

// ===============================================
// Messages
// ===============================================

func TestSendMessageAsGuest(t *testing.T) {
	env := newTestEnv()
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return &chat.Conversation{ID: 1, PublicID: publicID, Type: chat.ConversationTypePublic}, nil
	}
	router := env.router(t)

	payload := `{"body":"is the city tour running tomorrow?","mode":"public_guest"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/conv_public1/messages", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(GuestIDHeader, "guest-12345678")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec.Body.Bytes())
	if data["sender_type"] != "user" {
		t.Errorf("sender_type = %v, want user", data["sender_type"])
	}
	if senderID, ok := data["sender_id"]; ok {
		t.Errorf("sender_id = %v, guest tokens must not appear in payloads", senderID)
	}
	if data["conversation_id"] != "conv_public1" {
		t.Errorf("conversation_id = %v", data["conversation_id"])
	}
}

func TestSendMessageRejectsMissingFields(t *testing.T) {
	env := newTestEnv()
	router := env.router(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"missing mode", `{"body":"hello"}`},
		{"missing body", `{"mode":"public_guest"}`},
		{"not json", `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/conversations/conv_public1/messages", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(GuestIDHeader, "guest-12345678")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSendMessageRateLimited(t *testing.T) {
	env := newTestEnv()
	env.limiter = ratelimit.New(time.Minute)
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return &chat.Conversation{ID: 1, PublicID: publicID, Type: chat.ConversationTypePublic}, nil
	}
	router := env.router(t)

	send := func() *httptest.ResponseRecorder {
		payload := `{"body":"hello","mode":"public_guest"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/conversations/conv_public1/messages", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(GuestIDHeader, "guest-12345678")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first send status = %d, want 200", rec.Code)
	}
	if rec := send(); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second send status = %d, want 429", rec.Code)
	}
}

func TestListMessages(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-1")
	conv := &chat.Conversation{ID: 7, PublicID: "conv_private7", Type: chat.ConversationTypePrivate, CustomerID: strPtr("cust-1")}
	env.conversations.findByPublicIDFunc = func(ctx context.Context, publicID string) (*chat.Conversation, error) {
		return conv, nil
	}
	var gotPage chat.MessagePage
	env.messages.listFunc = func(ctx context.Context, conversationID uint, page chat.MessagePage) ([]*chat.Message, error) {
		gotPage = page
		return []*chat.Message{
			{ID: 2, PublicID: "msg_2", ConversationID: conv.ID, SenderType: chat.SenderAdmin, Body: "how can we help?"},
			{ID: 1, PublicID: "msg_1", ConversationID: conv.ID, SenderType: chat.SenderUser, Body: "hello"},
		}, nil
	}
	router := env.router(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv_private7/messages?limit=25&before=2026-08-31T12:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if gotPage.Limit != 25 {
		t.Errorf("limit = %d, want 25", gotPage.Limit)
	}
	if gotPage.Before == nil || !gotPage.Before.Equal(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("before = %v", gotPage.Before)
	}

	var envelope struct {
		Data []struct {
			ID             string `json:"id"`
			ConversationID string `json:"conversation_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("got %d messages, want 2", len(envelope.Data))
	}
	if envelope.Data[0].ConversationID != "conv_private7" {
		t.Errorf("conversation_id = %q", envelope.Data[0].ConversationID)
	}
}

func TestListMessagesRejectsBadBefore(t *testing.T) {
	env := newTestEnv()
	env.token = customerToken("cust-1")
	router := env.router(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv_private7/messages?before=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
