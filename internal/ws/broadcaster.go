package ws

import (
	"github.com/partshub/chat-service/internal/services"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
)

// Broadcaster translates chat outcomes into room-scoped events. It does
// no domain validation; callers have already been through the service
// layer. Both the REST handlers and the socket gateway publish through
// it, so the two write paths fan out identically.
//
// Fan-out is process-local: only sockets connected to this process
// receive events. Running more than one process requires an external
// publish/subscribe channel in front of this type.
type Broadcaster struct {
	registry *Registry
	logger   services.Logger
}

func NewBroadcaster(registry *Registry, logger services.Logger) *Broadcaster {
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &Broadcaster{registry: registry, logger: logger}
}

func (b *Broadcaster) emit(room, event string, data interface{}, except *Client) {
	clients := b.registry.RoomClients(room, except)
	if len(clients) == 0 {
		return
	}
	out := OutboundEvent{Event: event, Data: data}
	for _, c := range clients {
		c.enqueue(out)
	}
	b.logger.Debug("event broadcast", "event", event, "room", room, "recipients", len(clients))
}

// NewMessage announces a persisted message to its chat room, immediately
// followed by the delivery receipt. Persistence counts as delivery, so
// messageDelivered for a message id always follows its newMessage.
func (b *Broadcaster) NewMessage(chatID string, msg chatsvc.MessageDTO) {
	room := ChatRoom(chatID)
	b.emit(room, EventNewMessage, msg, nil)
	b.emit(room, EventMessageDelivered, map[string]interface{}{
		"chatId":      chatID,
		"messageId":   msg.ID,
		"deliveredAt": msg.DeliveredAt,
	}, nil)
}

// MessagesRead announces a bulk read receipt to the room, excluding the
// reader's own connection.
func (b *Broadcaster) MessagesRead(chatID, readerID string, count int64, except *Client) {
	b.emit(ChatRoom(chatID), EventMessagesRead, map[string]interface{}{
		"chatId":   chatID,
		"readerId": readerID,
		"count":    count,
	}, except)
}

// UserTyping relays a typing indicator to the room, excluding the typist.
// Nothing is persisted.
func (b *Broadcaster) UserTyping(chatID, senderID string, isTyping bool, except *Client) {
	b.emit(ChatRoom(chatID), EventUserTyping, map[string]interface{}{
		"chatId":   chatID,
		"userId":   senderID,
		"isTyping": isTyping,
	}, except)
}

// NewChat announces a freshly created chat to the manager queue.
func (b *Broadcaster) NewChat(chat *chatsvc.ChatDTO) {
	b.emit(RoomManagers, EventNewChat, chat, nil)
}

// ChatUpdate nudges the manager queue after customer activity in a chat.
func (b *Broadcaster) ChatUpdate(chatID string, msg chatsvc.MessageDTO) {
	b.emit(RoomManagers, EventChatUpdate, map[string]interface{}{
		"chatId":      chatID,
		"lastMessage": msg,
	}, nil)
}

// NewOffer announces a product offer to its chat room.
func (b *Broadcaster) NewOffer(chatID string, offer chatsvc.OfferDTO) {
	b.emit(ChatRoom(chatID), EventNewOffer, offer, nil)
}
