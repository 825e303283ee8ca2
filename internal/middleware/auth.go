// File: internal/middleware/auth.go
package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/partshub/chat-service/internal/auth"
	"github.com/partshub/chat-service/internal/identity"
	anonrepo "github.com/partshub/chat-service/internal/repository/anonymous"
)

// NewIdentityMiddleware resolves the caller's identity from the bearer
// token. Resolution is total: a missing or invalid token yields the
// Unauthenticated variant instead of a 401, so optional-auth routes can
// serve anonymous visitors. Guards that need a concrete identity stack
// RequireIdentity or RequireStaff on top.
func NewIdentityMiddleware(secretKey []byte, anonymousRepo anonrepo.AnonymousRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolveIdentity(r, secretKey, anonymousRepo)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func resolveIdentity(r *http.Request, secretKey []byte, anonymousRepo anonrepo.AnonymousRepository) identity.Identity {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return identity.None()
	}

	claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "), secretKey)
	if err != nil {
		log.Printf("[IdentityMiddleware] Invalid token: %v", err)
		return identity.None()
	}

	if claims.Anonymous {
		if anonymousRepo != nil {
			if _, err := anonymousRepo.FindByID(r.Context(), claims.Subject); err != nil {
				log.Printf("[IdentityMiddleware] Unknown anonymous user %s", claims.Subject)
				return identity.None()
			}
			if err := anonymousRepo.TouchActivity(r.Context(), claims.Subject); err != nil {
				log.Printf("[IdentityMiddleware] Failed to touch activity for %s: %v", claims.Subject, err)
			}
		}
		return identity.FromAnonymous(claims.Subject)
	}
	return identity.FromUser(claims.Subject, claims.Role)
}

// RequireIdentity rejects requests that resolved to Unauthenticated.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).Known() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects everyone without a manager or admin role. It MUST
// be used after the identity middleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if !id.Known() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !id.IsStaff() {
			log.Printf("[StaffMiddleware] Forbidden: %s attempted to access staff route %s", id.ID, r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
