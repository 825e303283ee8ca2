package services

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
	anonrepo "github.com/partshub/chat-service/internal/repository/anonymous"
	cartrepo "github.com/partshub/chat-service/internal/repository/cart"
	chatrepo "github.com/partshub/chat-service/internal/repository/chat"
	favrepo "github.com/partshub/chat-service/internal/repository/favorite"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
)

type mergeEnv struct {
	db        *gorm.DB
	svc       *MergeService
	anonymous anonrepo.AnonymousRepository
	carts     cartrepo.CartRepository
	favorites favrepo.FavoriteRepository
	chats     chatrepo.ChatRepository
}

func newMergeEnv(t *testing.T) *mergeEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&domain.User{},
		&domain.AnonymousUser{},
		&domain.Chat{},
		&domain.Message{},
		&domain.Cart{},
		&domain.CartItem{},
		&domain.Favorite{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &mergeEnv{
		db:        db,
		anonymous: anonrepo.NewAnonymousRepository(db),
		carts:     cartrepo.NewCartRepository(db),
		favorites: favrepo.NewFavoriteRepository(db),
		chats:     chatrepo.NewChatRepository(db),
	}
	svc, err := NewMergeService(db, env.anonymous, env.carts, env.favorites, env.chats, &NoOpLogger{})
	if err != nil {
		t.Fatalf("NewMergeService: %v", err)
	}
	env.svc = svc
	return env
}

func (e *mergeEnv) addAnonymous(t *testing.T) string {
	t.Helper()
	record, err := e.anonymous.Create(context.Background(), &domain.AnonymousUser{})
	if err != nil {
		t.Fatalf("create anonymous user: %v", err)
	}
	return record.ID
}

func (e *mergeEnv) addCart(t *testing.T, userID, anonymousUserID *string, productIDs ...string) string {
	t.Helper()
	cart := &domain.Cart{ID: uuid.NewString(), UserID: userID, AnonymousUserID: anonymousUserID}
	if err := e.db.Create(cart).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
	for _, pid := range productIDs {
		item := &domain.CartItem{ID: uuid.NewString(), CartID: cart.ID, ProductID: pid, Quantity: 1}
		if err := e.db.Create(item).Error; err != nil {
			t.Fatalf("create cart item: %v", err)
		}
	}
	return cart.ID
}

func (e *mergeEnv) addFavorite(t *testing.T, userID, anonymousUserID *string, productID string) {
	t.Helper()
	fav := &domain.Favorite{ID: uuid.NewString(), UserID: userID, AnonymousUserID: anonymousUserID, ProductID: productID}
	if err := e.db.Create(fav).Error; err != nil {
		t.Fatalf("create favorite: %v", err)
	}
}

// Сценарий: у пользователя нет корзины, анонимная корзина переходит целиком.
func TestMergeReassignsCartWhenUserHasNone(t *testing.T) {
	env := newMergeEnv(t)
	anonID := env.addAnonymous(t)
	userID := uuid.NewString()

	p1, p2 := uuid.NewString(), uuid.NewString()
	env.addCart(t, nil, &anonID, p1, p2)

	result, err := env.svc.MergeIntoUser(context.Background(), anonID, userID)
	if err != nil {
		t.Fatalf("MergeIntoUser: %v", err)
	}
	if !result.CartMerged {
		t.Fatal("expected cartMerged=true")
	}

	userCart, err := env.carts.FindByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("user cart after merge: %v", err)
	}
	if len(userCart.Items) != 2 {
		t.Fatalf("expected 2 items in user cart, got %d", len(userCart.Items))
	}
	products := map[string]bool{}
	for _, item := range userCart.Items {
		products[item.ProductID] = true
	}
	if !products[p1] || !products[p2] {
		t.Fatalf("expected items %s and %s, got %v", p1, p2, products)
	}

	if _, err := env.carts.FindByAnonymousID(context.Background(), anonID); !errors.Is(err, cartrepo.ErrCartNotFound) {
		t.Fatalf("expected anonymous cart to be gone, got %v", err)
	}

	record, err := env.anonymous.FindByID(context.Background(), anonID)
	if err != nil {
		t.Fatalf("anonymous record after merge: %v", err)
	}
	if record.UserID == nil || *record.UserID != userID {
		t.Fatalf("expected anonymous record attached to %s, got %v", userID, record.UserID)
	}
}

// Сценарий: обе корзины существуют, позиции переносятся без дедупликации.
func TestMergeMovesItemsIntoExistingCart(t *testing.T) {
	env := newMergeEnv(t)
	anonID := env.addAnonymous(t)
	userID := uuid.NewString()

	shared := uuid.NewString()
	env.addCart(t, &userID, nil, shared)
	anonCartID := env.addCart(t, nil, &anonID, shared, uuid.NewString())

	result, err := env.svc.MergeIntoUser(context.Background(), anonID, userID)
	if err != nil {
		t.Fatalf("MergeIntoUser: %v", err)
	}
	if !result.CartMerged {
		t.Fatal("expected cartMerged=true")
	}

	userCart, err := env.carts.FindByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("user cart after merge: %v", err)
	}
	// Одинаковый товар из обеих корзин остаётся двумя строками.
	if len(userCart.Items) != 3 {
		t.Fatalf("expected 3 items after move, got %d", len(userCart.Items))
	}

	var count int64
	env.db.Model(&domain.Cart{}).Where("id = ?", anonCartID).Count(&count)
	if count != 0 {
		t.Fatal("expected anonymous cart record to be deleted")
	}
}

func TestMergeFavoritesSkipsDuplicates(t *testing.T) {
	env := newMergeEnv(t)
	anonID := env.addAnonymous(t)
	userID := uuid.NewString()

	p1, p2 := uuid.NewString(), uuid.NewString()
	env.addFavorite(t, &userID, nil, p1)
	env.addFavorite(t, nil, &anonID, p1)
	env.addFavorite(t, nil, &anonID, p2)

	result, err := env.svc.MergeIntoUser(context.Background(), anonID, userID)
	if err != nil {
		t.Fatalf("MergeIntoUser: %v", err)
	}
	if result.FavoritesMoved != 1 {
		t.Fatalf("expected 1 favorite moved, got %d", result.FavoritesMoved)
	}

	var userFavorites []domain.Favorite
	env.db.Where("user_id = ?", userID).Find(&userFavorites)
	if len(userFavorites) != 2 {
		t.Fatalf("expected 2 user favorites, got %d", len(userFavorites))
	}

	remaining, err := env.favorites.FindByAnonymousID(context.Background(), anonID)
	if err != nil {
		t.Fatalf("anonymous favorites after merge: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no anonymous favorites left, got %d", len(remaining))
	}
}

func TestMergeTransfersChats(t *testing.T) {
	env := newMergeEnv(t)
	anonID := env.addAnonymous(t)
	userID := uuid.NewString()

	chat, err := env.chats.Create(context.Background(), &domain.Chat{AnonymousUserID: &anonID})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	result, err := env.svc.MergeIntoUser(context.Background(), anonID, userID)
	if err != nil {
		t.Fatalf("MergeIntoUser: %v", err)
	}
	if result.ChatsMoved != 1 {
		t.Fatalf("expected 1 chat moved, got %d", result.ChatsMoved)
	}

	moved, err := env.chats.FindByID(context.Background(), chat.ID)
	if err != nil {
		t.Fatalf("chat after merge: %v", err)
	}
	if moved.UserID == nil || *moved.UserID != userID {
		t.Fatalf("expected chat owned by %s, got %v", userID, moved.UserID)
	}
	if moved.AnonymousUserID != nil {
		t.Fatal("expected anonymous owner field to be cleared")
	}
}

// Перенос чатов не сверяется с уже существующим активным чатом
// пользователя, поэтому после слияния их может стать два. Поведение
// зафиксировано тестом.
func TestMergeCanLeaveTwoActiveChats(t *testing.T) {
	env := newMergeEnv(t)
	anonID := env.addAnonymous(t)
	userID := uuid.NewString()

	if _, err := env.chats.Create(context.Background(), &domain.Chat{UserID: &userID}); err != nil {
		t.Fatalf("create user chat: %v", err)
	}
	if _, err := env.chats.Create(context.Background(), &domain.Chat{AnonymousUserID: &anonID}); err != nil {
		t.Fatalf("create anonymous chat: %v", err)
	}

	if _, err := env.svc.MergeIntoUser(context.Background(), anonID, userID); err != nil {
		t.Fatalf("MergeIntoUser: %v", err)
	}

	var active int64
	env.db.Model(&domain.Chat{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&active)
	if active != 2 {
		t.Fatalf("expected 2 active chats after merge, got %d", active)
	}
}

func TestMergeUnknownAnonymousUser(t *testing.T) {
	env := newMergeEnv(t)

	_, err := env.svc.MergeIntoUser(context.Background(), uuid.NewString(), uuid.NewString())
	if chatsvc.TypeOf(err) != chatsvc.ErrTypeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestMergeRequiresBothIDs(t *testing.T) {
	env := newMergeEnv(t)

	_, err := env.svc.MergeIntoUser(context.Background(), "", uuid.NewString())
	if chatsvc.TypeOf(err) != chatsvc.ErrTypeBadRequest {
		t.Fatalf("expected BAD_REQUEST for empty anonymous id, got %v", err)
	}
	_, err = env.svc.MergeIntoUser(context.Background(), uuid.NewString(), "")
	if chatsvc.TypeOf(err) != chatsvc.ErrTypeBadRequest {
		t.Fatalf("expected BAD_REQUEST for empty user id, got %v", err)
	}
}
