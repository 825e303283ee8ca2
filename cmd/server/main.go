// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/config"
	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/handlers"
	"github.com/partshub/chat-service/internal/middleware"
	"github.com/partshub/chat-service/internal/ratelimit"
	anonrepo "github.com/partshub/chat-service/internal/repository/anonymous"
	cartrepo "github.com/partshub/chat-service/internal/repository/cart"
	chatrepo "github.com/partshub/chat-service/internal/repository/chat"
	favrepo "github.com/partshub/chat-service/internal/repository/favorite"
	messagerepo "github.com/partshub/chat-service/internal/repository/message"
	offerrepo "github.com/partshub/chat-service/internal/repository/offer"
	userrepo "github.com/partshub/chat-service/internal/repository/user"
	"github.com/partshub/chat-service/internal/services"
	"github.com/partshub/chat-service/internal/services/notify"
	"github.com/partshub/chat-service/internal/ws"
)

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Credentialed requests need the concrete origin echoed back;
			// browsers reject "*" combined with Allow-Credentials. On no
			// match the CORS headers are omitted entirely.
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")
			if origin != "" {
				for _, a := range allowedOrigins {
					if a == "*" || strings.EqualFold(a, origin) {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
						w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
						w.Header().Set("Access-Control-Allow-Credentials", "true")
						w.Header().Set("Access-Control-Max-Age", "86400")
						break
					}
				}
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
}

func main() {
	cfg := config.Load()
	logger := services.NewLogger("chat-service")
	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.AnonymousUser{},
		&domain.Chat{},
		&domain.Message{},
		&domain.ProductOffer{},
		&domain.Cart{},
		&domain.CartItem{},
		&domain.Favorite{},
	); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	userRepo := userrepo.NewUserRepository(db)
	anonymousRepo := anonrepo.NewAnonymousRepository(db)
	chatRepo := chatrepo.NewChatRepository(db)
	messageRepo := messagerepo.NewMessageRepository(db)
	offerRepo := offerrepo.NewOfferRepository(db)
	cartRepo := cartrepo.NewCartRepository(db)
	favoriteRepo := favrepo.NewFavoriteRepository(db)

	// --- Services ---
	var notifier notify.Sender = notify.NoopSender{}
	if cfg.PushEndpoint != "" {
		notifier = notify.NewHTTPSender(cfg.PushEndpoint)
	}

	chatService, err := services.NewChatService(chatRepo, messageRepo, offerRepo, userRepo, notifier, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Chat Service: %v", err)
	}
	mergeService, err := services.NewMergeService(db, anonymousRepo, cartRepo, favoriteRepo, chatRepo, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Merge Service: %v", err)
	}

	// --- Realtime ---
	registry := ws.NewRegistry()
	broadcaster := ws.NewBroadcaster(registry, logger)
	gateway := ws.NewGateway(chatService, registry, broadcaster, logger, allowedOrigins, cfg.SocketSendBuffer)

	// --- Handlers ---
	chatHandler := handlers.NewChatHandler(chatService, broadcaster, logger)
	authHandler := handlers.NewAuthHandler(anonymousRepo, mergeService, []byte(cfg.JWTSecretKey), logger)

	// --- Rate Limiters ---
	messageLimiter := ratelimit.NewLimiter(ratelimit.MessageConfig())
	defer messageLimiter.Close()
	createLimiter := ratelimit.NewLimiter(ratelimit.ChatCreateConfig())
	defer createLimiter.Close()

	// --- Router Setup ---
	r := mux.NewRouter()
	identityMiddleware := middleware.NewIdentityMiddleware([]byte(cfg.JWTSecretKey), anonymousRepo)

	r.Use(corsMiddleware(allowedOrigins))
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)
	r.Use(identityMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	r.HandleFunc("/ws", gateway.HandleWS)
	r.HandleFunc("/auth/anonymous", authHandler.CreateAnonymous).Methods("POST")

	// --- Staff Routes ---
	// Registered before the customer routes so /chats/manager is not
	// swallowed by the /chats/{id} pattern.
	staff := r.PathPrefix("/chats").Subrouter()
	staff.Use(middleware.RequireStaff)
	staff.HandleFunc("/manager", chatHandler.GetManagerChats).Methods("GET")
	staff.HandleFunc("/{id}/assign", chatHandler.AssignManager).Methods("PATCH")
	staff.HandleFunc("/{id}/offers", chatHandler.CreateOffer).Methods("POST")
	staff.HandleFunc("/offers/{offerId}", chatHandler.UpdateOffer).Methods("PATCH")
	staff.HandleFunc("/offers/{offerId}/cancel", chatHandler.CancelOffer).Methods("PATCH")
	staff.HandleFunc("/offers/{offerId}/deactivate", chatHandler.DeactivateOffer).Methods("PATCH")
	staff.HandleFunc("/{id}/close", chatHandler.CloseChat).Methods("PATCH")

	// --- Customer Routes ---
	chats := r.PathPrefix("/chats").Subrouter()
	chats.Use(middleware.RequireIdentity)
	chats.Handle("", middleware.RateLimitMiddleware(createLimiter, "chat-create")(
		http.HandlerFunc(chatHandler.CreateChat))).Methods("POST")
	chats.HandleFunc("", chatHandler.GetUserChats).Methods("GET")
	chats.HandleFunc("/{id}", chatHandler.GetChat).Methods("GET")
	chats.Handle("/{id}/messages", middleware.RateLimitMiddleware(messageLimiter, "message-send")(
		http.HandlerFunc(chatHandler.SendMessage))).Methods("POST")
	chats.HandleFunc("/{id}/messages/read", chatHandler.MarkMessagesAsRead).Methods("PATCH")

	// --- Merge Route ---
	merge := r.PathPrefix("/auth/merge-anonymous").Subrouter()
	merge.Use(middleware.RequireIdentity)
	merge.HandleFunc("", authHandler.MergeAnonymous).Methods("POST")

	// --- Server Configuration ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Chat service starting on port %s", cfg.ServerPort)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
