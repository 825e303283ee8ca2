package offer

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

var ErrOfferNotFound = errors.New("offer not found")

type gormOfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &gormOfferRepository{db: db}
}

func (r *gormOfferRepository) Create(ctx context.Context, o *domain.ProductOffer) (*domain.ProductOffer, error) {
	if o.ChatID == "" || o.ManagerID == "" {
		return nil, errors.New("chat id and manager id are required")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.IsActive = true
	o.IsCancelled = false

	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		log.Printf("[OfferRepository] Database error during offer creation for chat %s: %v", o.ChatID, err)
		return nil, errors.New("database error creating offer")
	}
	return o, nil
}

func (r *gormOfferRepository) FindByID(ctx context.Context, id string) (*domain.ProductOffer, error) {
	if id == "" {
		return nil, ErrOfferNotFound
	}
	var o domain.ProductOffer
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		log.Printf("[OfferRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &o, nil
}

func (r *gormOfferRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.ProductOffer, error) {
	var offers []domain.ProductOffer
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&offers).Error
	if err != nil {
		log.Printf("[OfferRepository] Database error finding offers for chat %s: %v", chatID, err)
		return nil, errors.New("database error fetching offers")
	}
	return offers, nil
}

func (r *gormOfferRepository) Save(ctx context.Context, o *domain.ProductOffer) (*domain.ProductOffer, error) {
	if err := r.db.WithContext(ctx).Save(o).Error; err != nil {
		log.Printf("[OfferRepository] Database error saving offer %s: %v", o.ID, err)
		return nil, errors.New("database error saving offer")
	}
	return o, nil
}
