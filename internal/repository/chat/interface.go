package chat

import (
	"context"

	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id string) (*domain.Chat, error)
	// FindActiveByOwner returns the active chat owned by the given user
	// or anonymous id, or ErrChatNotFound.
	FindActiveByOwner(ctx context.Context, userID, anonymousUserID *string) (*domain.Chat, error)
	// FindByOwner returns all chats of an identity, most recent first.
	FindByOwner(ctx context.Context, userID, anonymousUserID *string) ([]domain.Chat, error)
	// FindForManager returns active chats assigned to the manager plus
	// unassigned ones, most recent first.
	FindForManager(ctx context.Context, managerID string) ([]domain.Chat, error)
	SetManager(ctx context.Context, chatID, managerID string) error
	SetActive(ctx context.Context, chatID string, active bool) error
	TouchUpdatedAt(ctx context.Context, chatID string) error
	// ReassignOwner re-points every chat of the anonymous visitor at the
	// user, clearing the anonymous owner field. Returns the number of
	// chats moved.
	ReassignOwner(ctx context.Context, anonymousUserID, userID string) (int64, error)
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) ChatRepository
}
