package message

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

var ErrMessageNotFound = errors.New("message not found")

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if message.ChatID == "" || message.SenderID == "" {
		return nil, errors.New("chat id and sender id are required")
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		log.Printf("[MessageRepository] Database error during message creation for chat %s: %v", message.ChatID, err)
		return nil, errors.New("database error creating message")
	}
	return message, nil
}

func (r *gormMessageRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error finding messages for chat %s: %v", chatID, err)
		return nil, errors.New("database error fetching messages")
	}
	return messages, nil
}

func (r *gormMessageRepository) FindLastByChatID(ctx context.Context, chatID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[MessageRepository] Database error finding last message for chat %s: %v", chatID, err)
		return nil, errors.New("database query failed")
	}
	return &msg, nil
}

func (r *gormMessageRepository) MarkReadExceptSender(ctx context.Context, chatID, readerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		log.Printf("[MessageRepository] Database error marking messages read for chat %s: %v", chatID, result.Error)
		return 0, errors.New("database error marking messages read")
	}
	return result.RowsAffected, nil
}

func (r *gormMessageRepository) CountUnread(ctx context.Context, chatID, readerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, readerID, false).
		Count(&count).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error counting unread for chat %s: %v", chatID, err)
		return 0, errors.New("database error counting unread messages")
	}
	return count, nil
}
