package favorite

import (
	"context"

	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

// FavoriteRepository exposes the favorite operations the identity merge
// needs.
type FavoriteRepository interface {
	FindByAnonymousID(ctx context.Context, anonymousUserID string) ([]domain.Favorite, error)
	ExistsForUser(ctx context.Context, userID, productID string) (bool, error)
	// Reassign transfers one favorite to the user, clearing the anonymous
	// owner field.
	Reassign(ctx context.Context, favoriteID, userID string) error
	Delete(ctx context.Context, favoriteID string) error
	WithTx(tx *gorm.DB) FavoriteRepository
}
