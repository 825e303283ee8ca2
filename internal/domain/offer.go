// File: internal/domain/offer.go
package domain

import "time"

// ProductOffer is a manager-authored commercial proposal embedded into the
// chat timeline via a referencing message.
//
// Lifecycle: created active; a cancel is terminal (IsCancelled=true,
// IsActive=false); a deactivate only clears IsActive so it stays
// distinguishable from cancellation. Expiry (ExpiresAt) is advisory for
// clients and not enforced server-side.
type ProductOffer struct {
	ID           string      `json:"id" gorm:"primarykey;type:uuid"`
	ChatID       string      `json:"chatId" gorm:"type:uuid;index;not null"`
	ManagerID    string      `json:"managerId" gorm:"type:uuid;not null"`
	Name         string      `json:"name" gorm:"not null"`
	Description  string      `json:"description"`
	Price        float64     `json:"price" gorm:"type:decimal(10,2)"`
	OldPrice     *float64    `json:"oldPrice" gorm:"type:decimal(10,2)"`
	Image        *string     `json:"image"`
	Images       StringSlice `json:"images" gorm:"type:text"`
	DeliveryDays *int        `json:"deliveryDays"`
	IsOriginal   bool        `json:"isOriginal"`
	IsAnalog     bool        `json:"isAnalog"`
	IsActive     bool        `json:"isActive" gorm:"default:true"`
	IsCancelled  bool        `json:"isCancelled"`
	ExpiresAt    *time.Time  `json:"expiresAt"`
	CreatedAt    time.Time   `json:"createdAt"`
}
