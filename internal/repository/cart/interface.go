package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

// CartRepository exposes the cart operations the identity merge needs.
// Day-to-day cart management lives in the catalog part of the platform.
type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	FindByAnonymousID(ctx context.Context, anonymousUserID string) (*domain.Cart, error)
	// Reassign transfers cart ownership to the user, clearing the
	// anonymous owner field.
	Reassign(ctx context.Context, cartID, userID string) error
	// MoveItems re-points every item of src onto dst. No de-duplication
	// by product id happens here.
	MoveItems(ctx context.Context, srcCartID, dstCartID string) error
	Delete(ctx context.Context, cartID string) error
	WithTx(tx *gorm.DB) CartRepository
}
