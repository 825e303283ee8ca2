package chat

import (
	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
)

// CanAccessChat is the single ownership predicate for chats. Staff can
// open any chat; everyone else only their own.
func CanAccessChat(id identity.Identity, c *domain.Chat) bool {
	if c == nil {
		return false
	}
	if id.IsStaff() {
		return true
	}
	switch id.Kind {
	case identity.Authenticated:
		return c.UserID != nil && *c.UserID == id.ID
	case identity.Anonymous:
		return c.AnonymousUserID != nil && *c.AnonymousUserID == id.ID
	default:
		return false
	}
}

// OfferOwnedBy is the single ownership predicate for offers: only the
// manager who created an offer may change it.
func OfferOwnedBy(o *domain.ProductOffer, managerID string) bool {
	return o != nil && managerID != "" && o.ManagerID == managerID
}
