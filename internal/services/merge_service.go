package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	anonrepo "github.com/partshub/chat-service/internal/repository/anonymous"
	cartrepo "github.com/partshub/chat-service/internal/repository/cart"
	chatrepo "github.com/partshub/chat-service/internal/repository/chat"
	favrepo "github.com/partshub/chat-service/internal/repository/favorite"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
)

// MergeResult summarizes what a merge moved.
type MergeResult struct {
	CartMerged     bool  `json:"cartMerged"`
	FavoritesMoved int   `json:"favoritesMoved"`
	ChatsMoved     int64 `json:"chatsMoved"`
}

// MergeService folds an anonymous visitor's data into an authenticated
// account after login or registration. The whole merge runs in one
// database transaction: either every step lands or none does.
type MergeService struct {
	db            *gorm.DB
	anonymousRepo anonrepo.AnonymousRepository
	cartRepo      cartrepo.CartRepository
	favoriteRepo  favrepo.FavoriteRepository
	chatRepo      chatrepo.ChatRepository
	logger        Logger
}

func NewMergeService(
	db *gorm.DB,
	anonymousRepo anonrepo.AnonymousRepository,
	cartRepo cartrepo.CartRepository,
	favoriteRepo favrepo.FavoriteRepository,
	chatRepo chatrepo.ChatRepository,
	logger Logger,
) (*MergeService, error) {
	if db == nil {
		return nil, errors.New("merge service: database handle is required")
	}
	if anonymousRepo == nil || cartRepo == nil || favoriteRepo == nil || chatRepo == nil {
		return nil, errors.New("merge service: all repositories are required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &MergeService{
		db:            db,
		anonymousRepo: anonymousRepo,
		cartRepo:      cartRepo,
		favoriteRepo:  favoriteRepo,
		chatRepo:      chatRepo,
		logger:        logger,
	}, nil
}

// MergeIntoUser moves the cart, favorites and chats of the anonymous
// visitor onto the user and records the link on the anonymous record.
//
// Cart: if the user has no cart, the anonymous cart is reassigned
// wholesale. If both have one, items move across without product
// de-duplication and the empty anonymous cart is deleted.
//
// Favorites: each anonymous favorite is reassigned unless the user
// already favorites the same product, in which case the duplicate is
// deleted.
//
// Chats: every anonymous chat is re-pointed at the user, including
// active ones. If the user already has an active chat of their own, the
// merge can leave the account with two active chats; the next
// CreateOrGetChat picks the most recently updated one.
func (s *MergeService) MergeIntoUser(ctx context.Context, anonymousUserID, userID string) (*MergeResult, error) {
	if anonymousUserID == "" || userID == "" {
		return nil, chatsvc.NewBadRequestError("merge", "Anonymous user ID and user ID are required")
	}

	if _, err := s.anonymousRepo.FindByID(ctx, anonymousUserID); err != nil {
		if errors.Is(err, anonrepo.ErrAnonymousNotFound) {
			return nil, chatsvc.NewNotFoundError("merge", "Anonymous user not found")
		}
		return nil, chatsvc.NewInternalError("merge", "could not look up anonymous user", err)
	}

	var result MergeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		anonymous := s.anonymousRepo.WithTx(tx)
		carts := s.cartRepo.WithTx(tx)
		favorites := s.favoriteRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		merged, err := s.mergeCart(ctx, carts, anonymousUserID, userID)
		if err != nil {
			return err
		}
		result.CartMerged = merged

		moved, err := s.mergeFavorites(ctx, favorites, anonymousUserID, userID)
		if err != nil {
			return err
		}
		result.FavoritesMoved = moved

		chatsMoved, err := chats.ReassignOwner(ctx, anonymousUserID, userID)
		if err != nil {
			return err
		}
		result.ChatsMoved = chatsMoved

		return anonymous.AttachUser(ctx, anonymousUserID, userID)
	})
	if err != nil {
		s.logger.Error("identity merge failed", "anonymousUserID", anonymousUserID, "userID", userID, "error", err)
		return nil, chatsvc.NewInternalError("merge", "could not merge anonymous data", err)
	}

	s.logger.Info("identity merge completed",
		"anonymousUserID", anonymousUserID,
		"userID", userID,
		"cartMerged", result.CartMerged,
		"favoritesMoved", result.FavoritesMoved,
		"chatsMoved", result.ChatsMoved,
	)
	return &result, nil
}

func (s *MergeService) mergeCart(ctx context.Context, carts cartrepo.CartRepository, anonymousUserID, userID string) (bool, error) {
	anonCart, err := carts.FindByAnonymousID(ctx, anonymousUserID)
	if err != nil {
		if errors.Is(err, cartrepo.ErrCartNotFound) {
			return false, nil
		}
		return false, err
	}

	userCart, err := carts.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, cartrepo.ErrCartNotFound) {
			return false, err
		}
		// No account cart yet: hand over the anonymous cart wholesale.
		return true, carts.Reassign(ctx, anonCart.ID, userID)
	}

	if err := carts.MoveItems(ctx, anonCart.ID, userCart.ID); err != nil {
		return false, err
	}
	return true, carts.Delete(ctx, anonCart.ID)
}

func (s *MergeService) mergeFavorites(ctx context.Context, favorites favrepo.FavoriteRepository, anonymousUserID, userID string) (int, error) {
	anonFavorites, err := favorites.FindByAnonymousID(ctx, anonymousUserID)
	if err != nil {
		return 0, err
	}

	moved := 0
	for i := range anonFavorites {
		f := &anonFavorites[i]
		exists, err := favorites.ExistsForUser(ctx, userID, f.ProductID)
		if err != nil {
			return moved, err
		}
		if exists {
			if err := favorites.Delete(ctx, f.ID); err != nil {
				return moved, err
			}
			continue
		}
		if err := favorites.Reassign(ctx, f.ID, userID); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
