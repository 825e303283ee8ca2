// File: internal/handlers/chat_handler.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/partshub/chat-service/internal/middleware"
	"github.com/partshub/chat-service/internal/services"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
	"github.com/partshub/chat-service/internal/ws"
)

// ChatHandler is the REST surface of the chat domain. Every write goes
// through the same broadcaster as the socket gateway, so REST writes fan
// out to connected clients identically.
type ChatHandler struct {
	chats       *services.ChatService
	broadcaster *ws.Broadcaster
	logger      services.Logger
}

func NewChatHandler(chats *services.ChatService, broadcaster *ws.Broadcaster, logger services.Logger) *ChatHandler {
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &ChatHandler{chats: chats, broadcaster: broadcaster, logger: logger}
}

// CreateChat returns the caller's active chat, creating one on first
// contact. A freshly created chat is announced to the manager queue.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())

	var in chatsvc.CreateChatInput
	if r.ContentLength > 0 && !decodeJSON(w, r, &in) {
		return
	}

	chat, created, err := h.chats.CreateOrGetChat(r.Context(), id, in.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if created {
		h.broadcaster.NewChat(chat)
		writeJSON(w, http.StatusCreated, chat)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// GetUserChats lists the caller's chats.
func (h *ChatHandler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())

	chats, err := h.chats.GetUserChats(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// GetManagerChats lists the staff queue: chats assigned to the caller
// plus unassigned ones.
func (h *ChatHandler) GetManagerChats(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())

	chats, err := h.chats.GetManagerChats(r.Context(), id.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// GetChat returns the full conversation.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	chat, err := h.chats.GetChatByID(r.Context(), id, chatID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// SendMessage appends a message to the chat and fans it out.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	var in chatsvc.SendMessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.chats.SendMessage(r.Context(), chatID, id.ID, in.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.broadcaster.NewMessage(chatID, *msg)
	if !id.IsStaff() {
		h.broadcaster.ChatUpdate(chatID, *msg)
	}
	writeJSON(w, http.StatusCreated, msg)
}

// MarkMessagesAsRead flips the visible thread to read and returns the
// changed count.
func (h *ChatHandler) MarkMessagesAsRead(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	count, err := h.chats.MarkMessagesAsRead(r.Context(), chatID, id.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.broadcaster.MessagesRead(chatID, id.ID, count, nil)
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// AssignManager puts the calling manager on the chat.
func (h *ChatHandler) AssignManager(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	chat, err := h.chats.AssignManager(r.Context(), chatID, id.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The assignment system message is the last one on the thread.
	if chat.LastMessage != nil {
		h.broadcaster.NewMessage(chatID, *chat.LastMessage)
	}
	writeJSON(w, http.StatusOK, chat)
}

// CreateOffer persists a product offer and announces both the offer and
// its inline chat message.
func (h *ChatHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	var in chatsvc.CreateOfferInput
	if !decodeJSON(w, r, &in) {
		return
	}

	offer, msg, err := h.chats.CreateProductOffer(r.Context(), chatID, id.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.broadcaster.NewMessage(chatID, *msg)
	h.broadcaster.NewOffer(chatID, *offer)
	writeJSON(w, http.StatusCreated, offer)
}

// UpdateOffer applies a partial update to the caller's offer.
func (h *ChatHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	offerID := mux.Vars(r)["offerId"]

	var in chatsvc.UpdateOfferInput
	if !decodeJSON(w, r, &in) {
		return
	}

	offer, err := h.chats.UpdateProductOffer(r.Context(), offerID, id.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// CancelOffer puts the offer in its terminal cancelled state.
func (h *ChatHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	offerID := mux.Vars(r)["offerId"]

	offer, err := h.chats.CancelProductOffer(r.Context(), offerID, id.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// DeactivateOffer hides the offer without cancelling it.
func (h *ChatHandler) DeactivateOffer(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	offerID := mux.Vars(r)["offerId"]

	offer, err := h.chats.DeactivateOffer(r.Context(), offerID, id.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// CloseChat marks the chat inactive.
func (h *ChatHandler) CloseChat(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]

	chat, err := h.chats.CloseChat(r.Context(), chatID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if chat.LastMessage != nil {
		h.broadcaster.NewMessage(chatID, *chat.LastMessage)
	}
	writeJSON(w, http.StatusOK, chat)
}
