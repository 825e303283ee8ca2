// File: internal/domain/anonymous_user.go
package domain

import "time"

// AnonymousUser is a visitor identity issued before registration. After a
// successful login the record is re-pointed at the new account (UserID set)
// and the visitor's chat, cart and favorites are folded into that account.
type AnonymousUser struct {
	ID           string    `json:"id" gorm:"primarykey;type:uuid"`
	Token        string    `json:"-" gorm:"uniqueIndex"`
	UserID       *string   `json:"userId" gorm:"type:uuid;index"`
	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
}
