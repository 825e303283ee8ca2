// File: internal/identity/identity.go
package identity

import "github.com/partshub/chat-service/internal/domain"

// Kind distinguishes the three possible outcomes of identity resolution.
// Resolution is total: every request and every socket connection resolves
// to exactly one of these, and downstream code switches on the kind
// instead of probing for empty fields.
type Kind int

const (
	Unauthenticated Kind = iota
	Authenticated
	Anonymous
)

func (k Kind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unauthenticated"
	}
}

// Identity is the resolved caller of a request or connection. It is
// attached once at the boundary (auth middleware or socket handshake)
// and never mutated afterwards.
type Identity struct {
	Kind Kind
	ID   string
	Role domain.UserRole
}

// FromUser builds an authenticated identity.
func FromUser(id string, role domain.UserRole) Identity {
	return Identity{Kind: Authenticated, ID: id, Role: role}
}

// FromAnonymous builds an anonymous-visitor identity.
func FromAnonymous(id string) Identity {
	return Identity{Kind: Anonymous, ID: id, Role: domain.RoleCustomer}
}

// None is the unauthenticated identity.
func None() Identity {
	return Identity{Kind: Unauthenticated}
}

// Known reports whether the caller carries any identity at all.
func (i Identity) Known() bool {
	return i.Kind != Unauthenticated && i.ID != ""
}

// IsStaff reports whether the identity may act as a manager.
func (i Identity) IsStaff() bool {
	return i.Kind == Authenticated && i.Role.IsStaff()
}

// UserID returns the authenticated user id or nil.
func (i Identity) UserID() *string {
	if i.Kind == Authenticated && i.ID != "" {
		id := i.ID
		return &id
	}
	return nil
}

// AnonymousID returns the anonymous visitor id or nil.
func (i Identity) AnonymousID() *string {
	if i.Kind == Anonymous && i.ID != "" {
		id := i.ID
		return &id
	}
	return nil
}
