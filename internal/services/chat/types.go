package chat

import (
	"time"

	"github.com/partshub/chat-service/internal/domain"
)

// SenderRole is the display role derived at read time, never stored.
type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderManager  SenderRole = "manager"
	SenderSystem   SenderRole = "system"
)

// Display-name fallbacks, kept verbatim from the storefront so existing
// clients render identically.
const (
	FallbackManagerName   = "Менеджер"
	FallbackCustomerName  = "Клиент"
	FallbackAnonymousName = "Анонимный пользователь"
	FallbackUnknownName   = "Неизвестный"
)

// MessageDTO is a timeline entry with the derived sender fields attached.
type MessageDTO struct {
	ID          string     `json:"id"`
	ChatID      string     `json:"chatId"`
	SenderID    string     `json:"senderId"`
	Content     string     `json:"content"`
	OfferID     *string    `json:"offerId,omitempty"`
	Offer       *OfferDTO  `json:"offer,omitempty"`
	IsDelivered bool       `json:"isDelivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	SenderName  string     `json:"senderName"`
	SenderRole  SenderRole `json:"senderRole"`
}

// OfferDTO is the product offer as rendered inside a chat.
type OfferDTO struct {
	ID           string             `json:"id"`
	ChatID       string             `json:"chatId"`
	ManagerID    string             `json:"managerId"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Price        float64            `json:"price"`
	OldPrice     *float64           `json:"oldPrice,omitempty"`
	Image        *string            `json:"image,omitempty"`
	Images       domain.StringSlice `json:"images"`
	DeliveryDays *int               `json:"deliveryDays,omitempty"`
	IsOriginal   bool               `json:"isOriginal"`
	IsAnalog     bool               `json:"isAnalog"`
	IsActive     bool               `json:"isActive"`
	IsCancelled  bool               `json:"isCancelled"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	ManagerName  string             `json:"managerName"`
}

// ChatDTO is the full conversation as returned by the read path.
type ChatDTO struct {
	ID              string       `json:"id"`
	UserID          *string      `json:"userId,omitempty"`
	AnonymousUserID *string      `json:"anonymousUserId,omitempty"`
	ManagerID       *string      `json:"managerId,omitempty"`
	IsActive        bool         `json:"isActive"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Messages        []MessageDTO `json:"messages"`
	Offers          []OfferDTO   `json:"offers"`
	LastMessage     *MessageDTO  `json:"lastMessage,omitempty"`
	UnreadCount     int          `json:"unreadCount"`
}

// ChatListItemDTO is the compact row used by chat lists and the manager
// queue.
type ChatListItemDTO struct {
	ID              string      `json:"id"`
	UserID          *string     `json:"userId,omitempty"`
	AnonymousUserID *string     `json:"anonymousUserId,omitempty"`
	ManagerID       *string     `json:"managerId,omitempty"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	LastMessage     *MessageDTO `json:"lastMessage,omitempty"`
	UnreadCount     int         `json:"unreadCount"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
}

// CreateChatInput is the payload of the create-or-get operation.
type CreateChatInput struct {
	Message string `json:"message"`
}

// SendMessageInput is the payload of a message send.
type SendMessageInput struct {
	Content string `json:"content"`
}

// CreateOfferInput is the payload of an offer creation.
type CreateOfferInput struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	OldPrice     *float64   `json:"oldPrice"`
	Image        *string    `json:"image"`
	Images       []string   `json:"images"`
	DeliveryDays *int       `json:"deliveryDays"`
	IsOriginal   bool       `json:"isOriginal"`
	IsAnalog     bool       `json:"isAnalog"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

// UpdateOfferInput carries partial offer updates; nil fields are left
// untouched.
type UpdateOfferInput struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Price        *float64   `json:"price"`
	OldPrice     *float64   `json:"oldPrice"`
	Images       []string   `json:"images"`
	DeliveryDays *int       `json:"deliveryDays"`
	IsOriginal   *bool      `json:"isOriginal"`
	IsAnalog     *bool      `json:"isAnalog"`
	IsActive     *bool      `json:"isActive"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}
