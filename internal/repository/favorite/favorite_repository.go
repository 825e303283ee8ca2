package favorite

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

type gormFavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &gormFavoriteRepository{db: db}
}

func (r *gormFavoriteRepository) WithTx(tx *gorm.DB) FavoriteRepository {
	return &gormFavoriteRepository{db: tx}
}

func (r *gormFavoriteRepository) FindByAnonymousID(ctx context.Context, anonymousUserID string) ([]domain.Favorite, error) {
	var favorites []domain.Favorite
	err := r.db.WithContext(ctx).
		Where("anonymous_user_id = ?", anonymousUserID).
		Find(&favorites).Error
	if err != nil {
		log.Printf("[FavoriteRepository] Database error finding favorites: %v", err)
		return nil, errors.New("database error fetching favorites")
	}
	return favorites, nil
}

func (r *gormFavoriteRepository) ExistsForUser(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		log.Printf("[FavoriteRepository] Database error checking favorite: %v", err)
		return false, errors.New("database error checking favorite")
	}
	return count > 0, nil
}

func (r *gormFavoriteRepository) Reassign(ctx context.Context, favoriteID, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("id = ?", favoriteID).
		Updates(map[string]interface{}{
			"user_id":           userID,
			"anonymous_user_id": nil,
		}).Error
	if err != nil {
		log.Printf("[FavoriteRepository] Reassign database error for favorite %s: %v", favoriteID, err)
		return errors.New("database error reassigning favorite")
	}
	return nil
}

func (r *gormFavoriteRepository) Delete(ctx context.Context, favoriteID string) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Favorite{}, "id = ?", favoriteID).Error; err != nil {
		log.Printf("[FavoriteRepository] Delete database error for favorite %s: %v", favoriteID, err)
		return errors.New("database error deleting favorite")
	}
	return nil
}
