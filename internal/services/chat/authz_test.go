package chat

import (
	"testing"

	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
)

func strPtr(s string) *string { return &s }

func TestCanAccessChat(t *testing.T) {
	userChat := &domain.Chat{ID: "c1", UserID: strPtr("user-1")}
	anonChat := &domain.Chat{ID: "c2", AnonymousUserID: strPtr("visitor-1")}

	cases := []struct {
		name string
		id   identity.Identity
		chat *domain.Chat
		want bool
	}{
		{"owner user", identity.FromUser("user-1", domain.RoleCustomer), userChat, true},
		{"other user", identity.FromUser("user-2", domain.RoleCustomer), userChat, false},
		{"owner visitor", identity.FromAnonymous("visitor-1"), anonChat, true},
		{"other visitor", identity.FromAnonymous("visitor-2"), anonChat, false},
		{"visitor on user chat", identity.FromAnonymous("user-1"), userChat, false},
		{"manager anywhere", identity.FromUser("mgr-1", domain.RoleManager), anonChat, true},
		{"admin anywhere", identity.FromUser("adm-1", domain.RoleAdmin), userChat, true},
		{"unauthenticated", identity.None(), userChat, false},
		{"nil chat", identity.FromUser("mgr-1", domain.RoleManager), nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAccessChat(tc.id, tc.chat); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestOfferOwnedBy(t *testing.T) {
	offer := &domain.ProductOffer{ID: "o1", ManagerID: "mgr-1"}

	if !OfferOwnedBy(offer, "mgr-1") {
		t.Fatal("owner must pass the ownership check")
	}
	if OfferOwnedBy(offer, "mgr-2") {
		t.Fatal("another manager must not pass the ownership check")
	}
	if OfferOwnedBy(offer, "") {
		t.Fatal("empty caller id must not pass the ownership check")
	}
	if OfferOwnedBy(nil, "mgr-1") {
		t.Fatal("nil offer must not pass the ownership check")
	}
}
