// File: internal/domain/cart.go
package domain

import "time"

// Cart belongs to either a user or an anonymous visitor, never both.
// Carts are managed by the catalog part of the platform; this subsystem
// only touches them during the anonymous-to-user merge at login.
type Cart struct {
	ID              string     `json:"id" gorm:"primarykey;type:uuid"`
	UserID          *string    `json:"userId" gorm:"type:uuid;uniqueIndex"`
	AnonymousUserID *string    `json:"anonymousUserId" gorm:"type:uuid;uniqueIndex"`
	Items           []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        string    `json:"id" gorm:"primarykey;type:uuid"`
	CartID    string    `json:"cartId" gorm:"type:uuid;index;not null"`
	ProductID string    `json:"productId" gorm:"type:uuid;not null"`
	Quantity  int       `json:"quantity" gorm:"default:1"`
	CreatedAt time.Time `json:"createdAt"`
}
