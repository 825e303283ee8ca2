// File: internal/domain/chat.go
package domain

import "time"

// Chat is a single support conversation. Exactly one of UserID or
// AnonymousUserID is set; ManagerID is filled when a manager picks the
// chat up. At most one active chat per owner is intended but nothing
// enforces it transactionally.
type Chat struct {
	ID              string    `json:"id" gorm:"primarykey;type:uuid"`
	UserID          *string   `json:"userId" gorm:"type:uuid;index"`
	AnonymousUserID *string   `json:"anonymousUserId" gorm:"type:uuid;index"`
	ManagerID       *string   `json:"managerId" gorm:"type:uuid;index"`
	IsActive        bool      `json:"isActive" gorm:"default:true"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// OwnerKey returns the identity id owning the chat.
func (c *Chat) OwnerKey() string {
	if c.UserID != nil {
		return *c.UserID
	}
	if c.AnonymousUserID != nil {
		return *c.AnonymousUserID
	}
	return ""
}
