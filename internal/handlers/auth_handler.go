// File: internal/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"github.com/partshub/chat-service/internal/auth"
	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
	"github.com/partshub/chat-service/internal/middleware"
	anonrepo "github.com/partshub/chat-service/internal/repository/anonymous"
	"github.com/partshub/chat-service/internal/services"
)

// AuthHandler covers the identity endpoints this subsystem owns:
// anonymous visitor registration and the post-login merge. Account
// creation and login live in the external auth service.
type AuthHandler struct {
	anonymousRepo anonrepo.AnonymousRepository
	merge         *services.MergeService
	secretKey     []byte
	logger        services.Logger
}

func NewAuthHandler(anonymousRepo anonrepo.AnonymousRepository, merge *services.MergeService, secretKey []byte, logger services.Logger) *AuthHandler {
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &AuthHandler{
		anonymousRepo: anonymousRepo,
		merge:         merge,
		secretKey:     secretKey,
		logger:        logger,
	}
}

// CreateAnonymous registers a new anonymous visitor and returns its id
// with a bearer token for subsequent requests.
func (h *AuthHandler) CreateAnonymous(w http.ResponseWriter, r *http.Request) {
	record, err := h.anonymousRepo.Create(r.Context(), &domain.AnonymousUser{})
	if err != nil {
		h.logger.Error("failed to create anonymous user", "error", err)
		writeError(w, "Could not create anonymous user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateAnonymousToken(record.ID, h.secretKey)
	if err != nil {
		h.logger.Error("failed to issue anonymous token", "anonymousUserID", record.ID, "error", err)
		writeError(w, "Could not create anonymous user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"anonymousUserId": record.ID,
		"token":           token,
	})
}

type mergeRequest struct {
	AnonymousUserID string `json:"anonymousUserId"`
}

// MergeAnonymous folds the given anonymous visitor's data into the
// authenticated caller's account. Called once right after login or
// registration when the client still holds an anonymous id.
func (h *AuthHandler) MergeAnonymous(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if id.Kind != identity.Authenticated {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in mergeRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.merge.MergeIntoUser(r.Context(), in.AnonymousUserID, id.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health is the liveness endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
