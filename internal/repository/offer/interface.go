package offer

import (
	"context"

	"github.com/partshub/chat-service/internal/domain"
)

// OfferRepository handles product offer data operations.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.ProductOffer) (*domain.ProductOffer, error)
	FindByID(ctx context.Context, id string) (*domain.ProductOffer, error)
	FindByChatID(ctx context.Context, chatID string) ([]domain.ProductOffer, error)
	Save(ctx context.Context, offer *domain.ProductOffer) (*domain.ProductOffer, error)
}
