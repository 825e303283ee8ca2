// File: internal/handlers/chat_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
	"github.com/partshub/chat-service/internal/middleware"
	anonrepo "github.com/partshub/chat-service/internal/repository/anonymous"
	cartrepo "github.com/partshub/chat-service/internal/repository/cart"
	chatrepo "github.com/partshub/chat-service/internal/repository/chat"
	favrepo "github.com/partshub/chat-service/internal/repository/favorite"
	messagerepo "github.com/partshub/chat-service/internal/repository/message"
	offerrepo "github.com/partshub/chat-service/internal/repository/offer"
	userrepo "github.com/partshub/chat-service/internal/repository/user"
	"github.com/partshub/chat-service/internal/services"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
	"github.com/partshub/chat-service/internal/ws"
)

func newTestRouter(t *testing.T) (*mux.Router, *gorm.DB) {
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
		&domain.ProductOffer{},
		&domain.Cart{},
		&domain.CartItem{},
		&domain.Favorite{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	chatService, err := services.NewChatService(
		chatrepo.NewChatRepository(db),
		messagerepo.NewMessageRepository(db),
		offerrepo.NewOfferRepository(db),
		userrepo.NewUserRepository(db),
		nil,
		&services.NoOpLogger{},
	)
	if err != nil {
		t.Fatalf("NewChatService: %v", err)
	}
	mergeService, err := services.NewMergeService(
		db,
		anonrepo.NewAnonymousRepository(db),
		cartrepo.NewCartRepository(db),
		favrepo.NewFavoriteRepository(db),
		chatrepo.NewChatRepository(db),
		&services.NoOpLogger{},
	)
	if err != nil {
		t.Fatalf("NewMergeService: %v", err)
	}

	broadcaster := ws.NewBroadcaster(ws.NewRegistry(), &services.NoOpLogger{})
	chatHandler := NewChatHandler(chatService, broadcaster, &services.NoOpLogger{})
	authHandler := NewAuthHandler(anonrepo.NewAnonymousRepository(db), mergeService, []byte("test-secret"), &services.NoOpLogger{})

	r := mux.NewRouter()

	staff := r.PathPrefix("/chats").Subrouter()
	staff.Use(middleware.RequireStaff)
	staff.HandleFunc("/manager", chatHandler.GetManagerChats).Methods("GET")
	staff.HandleFunc("/{id}/assign", chatHandler.AssignManager).Methods("PATCH")
	staff.HandleFunc("/{id}/offers", chatHandler.CreateOffer).Methods("POST")
	staff.HandleFunc("/offers/{offerId}/cancel", chatHandler.CancelOffer).Methods("PATCH")
	staff.HandleFunc("/{id}/close", chatHandler.CloseChat).Methods("PATCH")

	chats := r.PathPrefix("/chats").Subrouter()
	chats.Use(middleware.RequireIdentity)
	chats.HandleFunc("", chatHandler.CreateChat).Methods("POST")
	chats.HandleFunc("", chatHandler.GetUserChats).Methods("GET")
	chats.HandleFunc("/{id}", chatHandler.GetChat).Methods("GET")
	chats.HandleFunc("/{id}/messages", chatHandler.SendMessage).Methods("POST")
	chats.HandleFunc("/{id}/messages/read", chatHandler.MarkMessagesAsRead).Methods("PATCH")

	merge := r.PathPrefix("/auth/merge-anonymous").Subrouter()
	merge.Use(middleware.RequireIdentity)
	merge.HandleFunc("", authHandler.MergeAnonymous).Methods("POST")

	return r, db
}

func doRequest(router *mux.Router, id identity.Identity, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(middleware.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateChatUnauthenticated(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, identity.None(), "POST", "/chats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateChatAndFetch(t *testing.T) {
	router, _ := newTestRouter(t)
	visitor := identity.FromAnonymous("visitor-1")

	rec := doRequest(router, visitor, "POST", "/chats", chatsvc.CreateChatInput{Message: "Hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var chat chatsvc.ChatDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("expected initial and welcome messages, got %d", len(chat.Messages))
	}

	// Повторный POST возвращает тот же чат со статусом 200.
	rec = doRequest(router, visitor, "POST", "/chats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat create, got %d", rec.Code)
	}

	rec = doRequest(router, visitor, "GET", "/chats/"+chat.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetChatNotFoundMapping(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, identity.FromAnonymous("visitor-1"), "GET", "/chats/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected an error message in the body")
	}
}

func TestStaffRouteForbiddenForCustomer(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, identity.FromAnonymous("visitor-1"), "GET", "/chats/manager", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestManagerQueueAccessible(t *testing.T) {
	router, _ := newTestRouter(t)
	manager := identity.FromUser("mgr-1", domain.RoleManager)

	rec := doRequest(router, manager, "GET", "/chats/manager", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateOfferConflictingFlagsMapping(t *testing.T) {
	router, _ := newTestRouter(t)
	visitor := identity.FromAnonymous("visitor-1")
	manager := identity.FromUser("mgr-1", domain.RoleManager)

	rec := doRequest(router, visitor, "POST", "/chats", nil)
	var chat chatsvc.ChatDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}

	rec = doRequest(router, manager, "POST", "/chats/"+chat.ID+"/offers", chatsvc.CreateOfferInput{
		Name:       "Фильтр масляный",
		Price:      1500,
		IsOriginal: true,
		IsAnalog:   true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOfferLifecycleOverREST(t *testing.T) {
	router, _ := newTestRouter(t)
	visitor := identity.FromAnonymous("visitor-1")
	manager := identity.FromUser("mgr-1", domain.RoleManager)

	rec := doRequest(router, visitor, "POST", "/chats", nil)
	var chat chatsvc.ChatDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}

	rec = doRequest(router, manager, "POST", "/chats/"+chat.ID+"/offers", chatsvc.CreateOfferInput{
		Name:       "Фильтр масляный",
		Price:      1500,
		IsOriginal: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var offer chatsvc.OfferDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &offer); err != nil {
		t.Fatalf("decode offer: %v", err)
	}

	rec = doRequest(router, manager, "PATCH", "/chats/offers/"+offer.ID+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cancelled chatsvc.OfferDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode cancelled offer: %v", err)
	}
	if cancelled.IsActive || !cancelled.IsCancelled {
		t.Fatalf("expected terminal cancelled state, got %+v", cancelled)
	}
}

func TestMergeAnonymousOverREST(t *testing.T) {
	router, db := newTestRouter(t)

	record := &domain.AnonymousUser{}
	if _, err := anonrepo.NewAnonymousRepository(db).Create(context.Background(), record); err != nil {
		t.Fatalf("create anonymous: %v", err)
	}

	user := identity.FromUser("user-1", domain.RoleCustomer)
	rec := doRequest(router, user, "POST", "/auth/merge-anonymous", map[string]string{
		"anonymousUserId": record.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result services.MergeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode merge result: %v", err)
	}
}
