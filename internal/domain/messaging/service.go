package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/autoreply"
	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/domain/identity"
	"travelbook/services/support-api/internal/domain/policy"
	"travelbook/services/support-api/internal/domain/ratelimit"
	"travelbook/services/support-api/internal/infrastructure/metrics"
	"travelbook/services/support-api/internal/infrastructure/observability"
	"travelbook/services/support-api/internal/infrastructure/queue"
	"travelbook/services/support-api/internal/realtime"
	"travelbook/services/support-api/internal/utils/idgen"
	"travelbook/services/support-api/internal/utils/platformerrors"
	"travelbook/services/support-api/internal/webhook"
)

// SendMode declares how the caller wants its message attributed. The
// mode must agree with both the caller's credential and the target
// conversation's type.
type SendMode string

const (
	ModePublicGuest SendMode = "public_guest"
	ModePublicAuth  SendMode = "public_auth"
	ModePrivateUser SendMode = "private_user"
	ModeAdmin       SendMode = "admin"
)

// Settings carries the ingestion tunables.
type Settings struct {
	FetchDefaultLimit int
	FetchMaxLimit     int
}

// SendInput is one message submission.
type SendInput struct {
	ConversationID string
	Body           string
	Mode           SendMode
	Identity       identity.Identity
}

// Service implements conversation access, message ingestion, history
// reads and read-marking. All authorization flows through the policy
// package; the service never bypasses it.
type Service struct {
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	limiter       *ratelimit.Limiter
	hub           *realtime.Hub
	taskQueue     queue.TaskQueue
	trigger       *autoreply.Trigger
	notifier      webhook.Service
	settings      Settings
	log           zerolog.Logger
}

// NewService wires the messaging service.
func NewService(
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	limiter *ratelimit.Limiter,
	hub *realtime.Hub,
	taskQueue queue.TaskQueue,
	trigger *autoreply.Trigger,
	notifier webhook.Service,
	settings Settings,
	log zerolog.Logger,
) *Service {
	if settings.FetchDefaultLimit <= 0 {
		settings.FetchDefaultLimit = 30
	}
	if settings.FetchMaxLimit <= 0 {
		settings.FetchMaxLimit = 60
	}
	return &Service{
		conversations: conversations,
		messages:      messages,
		limiter:       limiter,
		hub:           hub,
		taskQueue:     taskQueue,
		trigger:       trigger,
		notifier:      notifier,
		settings:      settings,
		log:           log.With().Str("component", "messaging-service").Logger(),
	}
}

// EnsurePublicChannel returns the shared public conversation, creating
// it on first startup.
func (s *Service) EnsurePublicChannel(ctx context.Context) (*chat.Conversation, error) {
	publicType := chat.ConversationTypePublic
	existing, err := s.conversations.FindByFilter(ctx, chat.ConversationFilter{Type: &publicType}, &chat.Pagination{Page: 1, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	conv := chat.NewConversation(idgen.NewConversationID(), chat.ConversationTypePublic, nil, nil)
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	s.log.Info().Str("conversation_id", conv.PublicID).Msg("public channel created")
	return conv, nil
}

// GetOrCreateConversation resolves the caller's private conversation,
// creating it if absent. A customer carrying a guest hint from a
// pre-login session gets that guest thread promoted: the customer id is
// attached and the thread keeps its history and guest id.
func (s *Service) GetOrCreateConversation(ctx context.Context, id identity.Identity, guestHint string) (*chat.Conversation, error) {
	switch id.Kind {
	case identity.KindGuest:
		return s.conversations.GetOrCreateGuest(ctx, id.GuestID)

	case identity.KindCustomer:
		if guestHint != "" {
			if conv, err := s.promoteGuestConversation(ctx, id.UserID, guestHint); err != nil {
				return nil, err
			} else if conv != nil {
				return conv, nil
			}
		}

		privateType := chat.ConversationTypePrivate
		existing, err := s.conversations.FindByFilter(ctx, chat.ConversationFilter{
			Type:       &privateType,
			CustomerID: &id.UserID,
		}, &chat.Pagination{Page: 1, PageSize: 1})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing[0], nil
		}

		conv := chat.NewConversation(idgen.NewConversationID(), chat.ConversationTypePrivate, &id.UserID, nil)
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, err
		}
		return conv, nil
	}

	return nil, platformerrors.NewError(
		ctx,
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeForbidden,
		"staff accounts do not own support conversations",
		nil,
		"messaging-staff-no-conversation",
	)
}

// promoteGuestConversation attaches the customer to a still-guest-held
// thread. Returns nil without error when the hint matches nothing or
// the thread already belongs to another customer.
func (s *Service) promoteGuestConversation(ctx context.Context, customerID, guestHint string) (*chat.Conversation, error) {
	guestType := chat.ConversationTypePrivate
	threads, err := s.conversations.FindByFilter(ctx, chat.ConversationFilter{
		Type:    &guestType,
		GuestID: &guestHint,
	}, &chat.Pagination{Page: 1, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return nil, nil
	}
	conv := threads[0]
	if conv.CustomerID != nil {
		if *conv.CustomerID == customerID {
			return conv, nil
		}
		return nil, nil
	}

	if err := s.conversations.AttachCustomer(ctx, conv.ID, customerID); err != nil {
		return nil, err
	}
	conv.CustomerID = &customerID
	s.log.Info().
		Str("conversation_id", conv.PublicID).
		Msg("guest conversation promoted to customer")
	return conv, nil
}

// GetConversation returns one conversation after a read-policy check.
func (s *Service) GetConversation(ctx context.Context, id identity.Identity, publicID string) (*chat.Conversation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if decision := policy.Authorize(id, conv, policy.OperationRead); !decision.Allowed {
		return nil, s.denied(ctx, decision)
	}
	return conv, nil
}

// ListConversations returns the staff inbox, most recently active first.
func (s *Service) ListConversations(ctx context.Context, id identity.Identity, filter chat.ConversationFilter, pagination *chat.Pagination) ([]*chat.Conversation, error) {
	if !id.IsStaff() {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeForbidden,
			"conversation listing requires a staff role",
			nil,
			"messaging-list-staff-only",
		)
	}
	return s.conversations.FindByFilter(ctx, filter, pagination)
}

// Send validates, authorizes, rate-limits and persists one message,
// then fans it out to live subscribers and queues an auto-reply job
// when the trigger fires. The caller's message is never blocked on the
// auto-reply path.
func (s *Service) Send(ctx context.Context, input SendInput) (*chat.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"message body is empty",
			nil,
			"messaging-empty-body",
		)
	}
	if len([]rune(body)) > chat.MaxBodyLength {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"message body exceeds the maximum length",
			nil,
			"messaging-body-too-long",
		)
	}

	conv, err := s.conversations.FindByPublicID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSendSpan(ctx, conv.PublicID, string(conv.Type), string(senderTypeForMode(input.Mode)))
	defer span.End()

	senderType, senderID, err := s.resolveSender(ctx, input.Mode, input.Identity, conv)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if decision := policy.Authorize(input.Identity, conv, policy.OperationWrite); !decision.Allowed {
		err := s.denied(ctx, decision)
		observability.RecordError(span, err)
		return nil, err
	}

	if !input.Identity.IsStaff() && !s.limiter.Allow(input.Identity.Key()) {
		metrics.RecordRateLimited()
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeRateLimited,
			"too many messages, slow down",
			nil,
			"messaging-cooldown",
		)
	}

	msg := chat.NewMessage(idgen.NewMessageID(), conv.ID, senderType, senderID, body)
	msg.Conversation = conv.PublicID

	start := time.Now()
	if err := s.messages.Record(ctx, msg); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	metrics.RecordDBQuery("message_record", time.Since(start).Seconds())
	metrics.RecordMessageSent(string(senderType), string(conv.Type))

	s.hub.Publish(conv.PublicID, realtime.Event{Name: realtime.EventMessage, Message: msg})

	s.maybeQueueReply(ctx, conv, msg)

	return msg, nil
}

// Fetch returns the conversation and a newest-first message page after a
// read-policy check. The limit is clamped to the configured maximum.
func (s *Service) Fetch(ctx context.Context, id identity.Identity, publicID string, limit int, before *time.Time) (*chat.Conversation, []*chat.Message, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	if decision := policy.Authorize(id, conv, policy.OperationRead); !decision.Allowed {
		return nil, nil, s.denied(ctx, decision)
	}

	if limit <= 0 {
		limit = s.settings.FetchDefaultLimit
	}
	if limit > s.settings.FetchMaxLimit {
		limit = s.settings.FetchMaxLimit
	}

	ctx, span := observability.StartFetchSpan(ctx, conv.PublicID, limit)
	defer span.End()

	msgs, err := s.messages.ListByConversation(ctx, conv.ID, chat.MessagePage{Limit: limit, Before: before})
	if err != nil {
		observability.RecordError(span, err)
		return nil, nil, err
	}
	for _, m := range msgs {
		m.Conversation = conv.PublicID
	}
	return conv, msgs, nil
}

// MarkRead zeroes an unread counter and returns the refreshed
// conversation. An empty target resets the caller's own side. Staff may
// name either side; customers and guests only their own.
func (s *Service) MarkRead(ctx context.Context, id identity.Identity, publicID, targetName string) (*chat.Conversation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if decision := policy.Authorize(id, conv, policy.OperationRead); !decision.Allowed {
		return nil, s.denied(ctx, decision)
	}

	target, err := s.resolveCounterTarget(ctx, id, targetName)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.ResetUnread(ctx, conv.ID, target); err != nil {
		return nil, err
	}

	refreshed, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(conv.PublicID, realtime.Event{Name: realtime.EventConversation, Conversation: refreshed})
	return refreshed, nil
}

// resolveCounterTarget maps the optional mark-read target to a counter.
// "user" names the customer-facing counter, "admin" the staff one.
func (s *Service) resolveCounterTarget(ctx context.Context, id identity.Identity, targetName string) (chat.CounterTarget, error) {
	switch targetName {
	case "":
		if id.IsStaff() {
			return chat.CounterStaff, nil
		}
		return chat.CounterCustomer, nil
	case "user":
		return chat.CounterCustomer, nil
	case "admin":
		if !id.IsStaff() {
			return "", platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeForbidden,
				"only staff can reset the staff counter",
				nil,
				"messaging-mark-read-staff-target",
			)
		}
		return chat.CounterStaff, nil
	}
	return "", platformerrors.NewError(
		ctx,
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeValidation,
		"target must be user or admin",
		nil,
		"messaging-mark-read-bad-target",
	)
}

// SendSystemReply persists an automated response and fans it out. Used
// by the reply worker; bypasses the cooldown limiter but not the body
// bounds.
func (s *Service) SendSystemReply(ctx context.Context, conversationID uint, body string) (*chat.Message, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"reply body is empty",
			nil,
			"messaging-empty-reply",
		)
	}
	if len([]rune(body)) > chat.MaxBodyLength {
		body = string([]rune(body)[:chat.MaxBodyLength])
	}

	msg := chat.NewMessage(idgen.NewMessageID(), conv.ID, chat.SenderSystem, nil, body)
	msg.Conversation = conv.PublicID

	if err := s.messages.Record(ctx, msg); err != nil {
		return nil, err
	}
	metrics.RecordMessageSent(string(chat.SenderSystem), string(conv.Type))

	s.hub.Publish(conv.PublicID, realtime.Event{Name: realtime.EventMessage, Message: msg})
	return msg, nil
}

// resolveSender checks that the declared mode agrees with the caller's
// credential and the conversation type, and derives the stored sender
// attribution. Callers always write as themselves. Guests are never
// attributed a sender id: their token grants access to their private
// thread, so it must not appear in message payloads. Guest correlation
// lives on the conversation's guest_id instead.
func (s *Service) resolveSender(ctx context.Context, mode SendMode, id identity.Identity, conv *chat.Conversation) (chat.SenderType, *string, error) {
	modeMismatch := func(msg string) error {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			msg,
			nil,
			"messaging-mode-mismatch",
		)
	}
	wrongCredential := func(msg string) error {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeForbidden,
			msg,
			nil,
			"messaging-mode-credential",
		)
	}

	switch mode {
	case ModePublicGuest:
		if conv.Type != chat.ConversationTypePublic {
			return "", nil, modeMismatch("public_guest mode targets the public channel")
		}
		if id.Kind != identity.KindGuest {
			return "", nil, wrongCredential("public_guest mode requires a guest identity")
		}
		return chat.SenderUser, nil, nil

	case ModePublicAuth:
		if conv.Type != chat.ConversationTypePublic {
			return "", nil, modeMismatch("public_auth mode targets the public channel")
		}
		if id.Kind != identity.KindCustomer {
			return "", nil, wrongCredential("public_auth mode requires a signed-in customer")
		}
		return chat.SenderUser, &id.UserID, nil

	case ModePrivateUser:
		if conv.Type != chat.ConversationTypePrivate {
			return "", nil, modeMismatch("private_user mode targets a private conversation")
		}
		switch id.Kind {
		case identity.KindCustomer:
			return chat.SenderUser, &id.UserID, nil
		case identity.KindGuest:
			return chat.SenderUser, nil, nil
		}
		return "", nil, wrongCredential("private_user mode requires a customer or guest identity")

	case ModeAdmin:
		if !id.IsStaff() {
			return "", nil, wrongCredential("admin mode requires a staff role")
		}
		return chat.SenderAdmin, &id.UserID, nil
	}

	return "", nil, modeMismatch("unknown send mode")
}

// ConversationPublicID resolves a conversation's public id from its
// internal one.
func (s *Service) ConversationPublicID(ctx context.Context, conversationID uint) (string, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return conv.PublicID, nil
}

// maybeQueueReply enqueues an auto-reply job when the trigger fires, or
// notifies staff tooling when handoff mode routes the message to a
// human. Best-effort either way: failures are logged, never returned to
// the sender.
func (s *Service) maybeQueueReply(ctx context.Context, conv *chat.Conversation, msg *chat.Message) {
	if s.taskQueue == nil || s.trigger == nil {
		return
	}

	if s.trigger.ShouldHandoff(conv.Type, msg.SenderType) && s.notifier != nil {
		_, language := s.trigger.Classify(msg.Body)
		if err := s.notifier.NotifyHandoff(ctx, conv.PublicID, msg.Body, language); err != nil {
			s.log.Error().Err(err).
				Str("conversation_id", conv.PublicID).
				Msg("failed to notify handoff")
		}
		return
	}

	if !s.trigger.ShouldFire(conv.Type, msg.SenderType) {
		return
	}

	_, language := s.trigger.Classify(msg.Body)
	task := &queue.Task{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		TriggerBody:    msg.Body,
		Language:       language,
	}
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		s.log.Error().Err(err).
			Str("conversation_id", conv.PublicID).
			Msg("failed to enqueue auto-reply job")
		return
	}
	metrics.RecordReplyJob("queued")
}

func (s *Service) denied(ctx context.Context, decision policy.Decision) error {
	msg := "access to this conversation is not allowed"
	if decision.Reason == policy.ReasonNotOwner {
		msg = "conversation belongs to another customer"
	}
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeForbidden,
		msg,
		nil,
		"messaging-access-denied",
	)
}

func senderTypeForMode(mode SendMode) chat.SenderType {
	if mode == ModeAdmin {
		return chat.SenderAdmin
	}
	return chat.SenderUser
}
