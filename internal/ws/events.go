package ws

import "encoding/json"

// Inbound event names.
const (
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventSendMessage = "sendMessage"
	EventMarkAsRead  = "markAsRead"
	EventTyping      = "typing"
)

// Outbound event names.
const (
	EventNewMessage       = "newMessage"
	EventMessageDelivered = "messageDelivered"
	EventMessagesRead     = "messagesRead"
	EventUserTyping       = "userTyping"
	EventNewChat          = "newChat"
	EventChatUpdate       = "chatUpdate"
	EventNewOffer         = "newOffer"
	EventAck              = "ack"
)

// RoomManagers is the shared staff room; every manager and admin joins it
// on connect.
const RoomManagers = "managers"

// ChatRoom returns the room name for one conversation.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

// InboundEvent is the wire envelope clients send. RequestID is echoed in
// the acknowledgment so a client can match acks to requests.
type InboundEvent struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// OutboundEvent is the wire envelope the server sends.
type OutboundEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Ack acknowledges one inbound event. Exactly one of Success or Error is
// meaningful; domain errors come back here instead of closing the socket.
type Ack struct {
	Event     string      `json:"event"`
	RequestID string      `json:"requestId,omitempty"`
	Success   bool        `json:"success"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type joinChatPayload struct {
	ChatID string `json:"chatId"`
}

type sendMessagePayload struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type markAsReadPayload struct {
	ChatID string `json:"chatId"`
}

type typingPayload struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}
