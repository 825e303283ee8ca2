package anonymous

import (
	"context"

	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

// AnonymousRepository handles anonymous visitor records.
type AnonymousRepository interface {
	Create(ctx context.Context, a *domain.AnonymousUser) (*domain.AnonymousUser, error)
	FindByID(ctx context.Context, id string) (*domain.AnonymousUser, error)
	// TouchActivity bumps lastActivity; called on every resolution.
	TouchActivity(ctx context.Context, id string) error
	// AttachUser re-points the anonymous record at an account.
	AttachUser(ctx context.Context, id, userID string) error
	WithTx(tx *gorm.DB) AnonymousRepository
}
