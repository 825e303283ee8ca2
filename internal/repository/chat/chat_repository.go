package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

var ErrChatNotFound = errors.New("chat not found")

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) WithTx(tx *gorm.DB) ChatRepository {
	return &gormChatRepository{db: tx}
}

func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if chat.UserID == nil && chat.AnonymousUserID == nil {
		return nil, errors.New("chat owner is required")
	}
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	chat.IsActive = true

	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		log.Printf("[ChatRepository] Database error during chat creation: %v", err)
		return nil, errors.New("database error creating chat")
	}
	return chat, nil
}

func (r *gormChatRepository) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	if id == "" {
		return nil, ErrChatNotFound
	}
	var chat domain.Chat
	err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		log.Printf("[ChatRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &chat, nil
}

func (r *gormChatRepository) FindActiveByOwner(ctx context.Context, userID, anonymousUserID *string) (*domain.Chat, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	switch {
	case userID != nil:
		q = q.Where("user_id = ?", *userID)
	case anonymousUserID != nil:
		q = q.Where("anonymous_user_id = ?", *anonymousUserID)
	default:
		return nil, ErrChatNotFound
	}

	var chat domain.Chat
	err := q.Order("updated_at DESC").First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		log.Printf("[ChatRepository] FindActiveByOwner database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &chat, nil
}

func (r *gormChatRepository) FindByOwner(ctx context.Context, userID, anonymousUserID *string) ([]domain.Chat, error) {
	q := r.db.WithContext(ctx)
	switch {
	case userID != nil:
		q = q.Where("user_id = ?", *userID)
	case anonymousUserID != nil:
		q = q.Where("anonymous_user_id = ?", *anonymousUserID)
	default:
		return nil, nil
	}

	var chats []domain.Chat
	if err := q.Order("updated_at DESC").Find(&chats).Error; err != nil {
		log.Printf("[ChatRepository] FindByOwner database error: %v", err)
		return nil, errors.New("database error fetching chats")
	}
	return chats, nil
}

func (r *gormChatRepository) FindForManager(ctx context.Context, managerID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("manager_id = ? OR manager_id IS NULL", managerID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		log.Printf("[ChatRepository] FindForManager database error: %v", err)
		return nil, errors.New("database error fetching manager chats")
	}
	return chats, nil
}

// SetManager overwrites the assignment unconditionally; the last writer wins.
func (r *gormChatRepository) SetManager(ctx context.Context, chatID, managerID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("manager_id", managerID)
	if result.Error != nil {
		log.Printf("[ChatRepository] SetManager database error for chat %s: %v", chatID, result.Error)
		return errors.New("database error assigning manager")
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *gormChatRepository) SetActive(ctx context.Context, chatID string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("is_active", active)
	if result.Error != nil {
		log.Printf("[ChatRepository] SetActive database error for chat %s: %v", chatID, result.Error)
		return errors.New("database error updating chat state")
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *gormChatRepository) ReassignOwner(ctx context.Context, anonymousUserID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("anonymous_user_id = ?", anonymousUserID).
		Updates(map[string]interface{}{
			"user_id":           userID,
			"anonymous_user_id": nil,
		})
	if result.Error != nil {
		log.Printf("[ChatRepository] ReassignOwner database error for anonymous user %s: %v", anonymousUserID, result.Error)
		return 0, errors.New("database error reassigning chats")
	}
	return result.RowsAffected, nil
}

func (r *gormChatRepository) TouchUpdatedAt(ctx context.Context, chatID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", time.Now())
	if result.Error != nil {
		log.Printf("[ChatRepository] TouchUpdatedAt database error for chat %s: %v", chatID, result.Error)
		return errors.New("database error updating chat timestamp")
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}
