// File: internal/domain/favorite.go
package domain

import "time"

// Favorite marks a product as saved by a user or an anonymous visitor.
type Favorite struct {
	ID              string    `json:"id" gorm:"primarykey;type:uuid"`
	UserID          *string   `json:"userId" gorm:"type:uuid;index:idx_fav_user_product,unique"`
	AnonymousUserID *string   `json:"anonymousUserId" gorm:"type:uuid;index"`
	ProductID       string    `json:"productId" gorm:"type:uuid;not null;index:idx_fav_user_product,unique"`
	CreatedAt       time.Time `json:"createdAt"`
}
