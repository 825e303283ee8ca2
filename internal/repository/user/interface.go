package user

import (
	"context"

	"github.com/partshub/chat-service/internal/domain"
)

// UserRepository reads account records owned by the external auth service.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
