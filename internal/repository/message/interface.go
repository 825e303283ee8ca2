package message

import (
	"context"

	"github.com/partshub/chat-service/internal/domain"
)

// MessageRepository handles message data operations.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	// FindByChatID returns the whole thread in chronological order.
	FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	// FindLastByChatID returns the most recent message or nil.
	FindLastByChatID(ctx context.Context, chatID string) (*domain.Message, error)
	// MarkReadExceptSender flips every unread message not authored by
	// readerID to read and returns the number of rows changed.
	MarkReadExceptSender(ctx context.Context, chatID, readerID string) (int64, error)
	// CountUnread counts unread messages in a chat not authored by the
	// given reader.
	CountUnread(ctx context.Context, chatID, readerID string) (int64, error)
}
