package cart

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

type gormCartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &gormCartRepository{db: db}
}

func (r *gormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &gormCartRepository{db: tx}
}

func (r *gormCartRepository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *gormCartRepository) FindByAnonymousID(ctx context.Context, anonymousUserID string) (*domain.Cart, error) {
	return r.findOne(ctx, "anonymous_user_id = ?", anonymousUserID)
}

func (r *gormCartRepository) findOne(ctx context.Context, query string, arg string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where(query, arg).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		log.Printf("[CartRepository] Database error finding cart: %v", err)
		return nil, errors.New("database query failed")
	}
	return &c, nil
}

func (r *gormCartRepository) Reassign(ctx context.Context, cartID, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"user_id":           userID,
			"anonymous_user_id": nil,
		})
	if result.Error != nil {
		log.Printf("[CartRepository] Reassign database error for cart %s: %v", cartID, result.Error)
		return errors.New("database error reassigning cart")
	}
	if result.RowsAffected == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *gormCartRepository) MoveItems(ctx context.Context, srcCartID, dstCartID string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.CartItem{}).
		Where("cart_id = ?", srcCartID).
		Update("cart_id", dstCartID).Error
	if err != nil {
		log.Printf("[CartRepository] MoveItems database error %s -> %s: %v", srcCartID, dstCartID, err)
		return errors.New("database error moving cart items")
	}
	return nil
}

func (r *gormCartRepository) Delete(ctx context.Context, cartID string) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Cart{}, "id = ?", cartID).Error; err != nil {
		log.Printf("[CartRepository] Delete database error for cart %s: %v", cartID, err)
		return errors.New("database error deleting cart")
	}
	return nil
}
