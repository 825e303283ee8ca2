// File: internal/domain/message.go
package domain

import "time"

// SystemSenderID is the literal sender id of service-generated messages.
const SystemSenderID = "system"

// Message is a single entry in a chat timeline. OfferID links the message
// to a product offer so clients render it inline. Delivery is recorded at
// persistence time; read receipts are set in bulk per thread.
type Message struct {
	ID          string     `json:"id" gorm:"primarykey;type:uuid"`
	ChatID      string     `json:"chatId" gorm:"type:uuid;index;not null"`
	SenderID    string     `json:"senderId" gorm:"not null"`
	Content     string     `json:"content" gorm:"not null"`
	OfferID     *string    `json:"offerId" gorm:"type:uuid"`
	IsDelivered bool       `json:"isDelivered"`
	DeliveredAt *time.Time `json:"deliveredAt"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsSystem reports whether the message was generated by the service itself.
func (m *Message) IsSystem() bool {
	return m.SenderID == SystemSenderID
}
