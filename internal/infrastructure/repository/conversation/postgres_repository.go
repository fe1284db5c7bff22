package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/infrastructure/database/entities"
	"travelbook/services/support-api/internal/utils/idgen"
	"travelbook/services/support-api/internal/utils/platformerrors"
)

// Repository persists conversation metadata and counters.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"conversation-create-error",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPublicID fetches a conversation by its public ID.
func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", publicID),
				nil,
				"conversation-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"conversation-fetch-error",
		)
	}

	return entity.EtoD(), nil
}

// FindByID fetches a conversation by its internal ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %d", id),
				nil,
				"conversation-find-by-id-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"conversation-find-by-id-error",
		)
	}
	return entity.EtoD(), nil
}

// GetOrCreateGuest returns the private conversation owned by guestID,
// creating it if absent. The unique index on guest_id makes concurrent
// first calls converge: the losing insert retries the lookup.
func (r *Repository) GetOrCreateGuest(ctx context.Context, guestID string) (*domain.Conversation, error) {
	existing, err := r.findByGuestID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv := domain.NewConversation(idgen.NewConversationID(), domain.ConversationTypePrivate, nil, &guestID)
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			existing, retryErr := r.findByGuestID(ctx, guestID)
			if retryErr != nil {
				return nil, retryErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create guest conversation",
			err,
			"guest-conversation-create-error",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return conv, nil
}

func (r *Repository) findByGuestID(ctx context.Context, guestID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch guest conversation",
			err,
			"guest-conversation-fetch-error",
		)
	}
	return entity.EtoD(), nil
}

// FindByFilter fetches conversations matching the filter criteria,
// most recently active first.
func (r *Repository) FindByFilter(ctx context.Context, filter domain.ConversationFilter, pagination *domain.Pagination) ([]*domain.Conversation, error) {
	query := r.db.WithContext(ctx).Model(&entities.Conversation{})

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.GuestID != nil {
		query = query.Where("guest_id = ?", *filter.GuestID)
	}

	if pagination != nil {
		offset := (pagination.Page - 1) * pagination.PageSize
		query = query.Offset(offset).Limit(pagination.PageSize)
	}

	var rows []entities.Conversation
	if err := query.
		Order("last_message_at DESC NULLS LAST").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find conversations",
			err,
			"conversation-filter-error",
		)
	}

	result := make([]*domain.Conversation, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// AttachCustomer records customer ownership on a guest-created
// conversation. Additive: rows that already carry a customer id are
// left untouched.
func (r *Repository) AttachCustomer(ctx context.Context, conversationID uint, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ? AND customer_id IS NULL", conversationID).
		Update("customer_id", customerID)

	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to attach customer",
			result.Error,
			"conversation-attach-customer-error",
		)
	}
	return nil
}

// ResetUnread zeroes one party's unread counter.
func (r *Repository) ResetUnread(ctx context.Context, conversationID uint, target domain.CounterTarget) error {
	column := "unread_staff"
	if target == domain.CounterCustomer {
		column = "unread_customer"
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", conversationID).
		Update(column, 0)

	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to reset unread counter",
			result.Error,
			"conversation-reset-unread-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", conversationID),
			nil,
			"conversation-reset-unread-missing",
		)
	}
	return nil
}

// isUniqueViolation detects SQLSTATE 23505 from the pgx driver behind
// gorm's postgres dialect.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
