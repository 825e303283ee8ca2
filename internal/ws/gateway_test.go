// File: internal/ws/gateway_test.go
package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
	chatrepo "github.com/partshub/chat-service/internal/repository/chat"
	messagerepo "github.com/partshub/chat-service/internal/repository/message"
	offerrepo "github.com/partshub/chat-service/internal/repository/offer"
	userrepo "github.com/partshub/chat-service/internal/repository/user"
	"github.com/partshub/chat-service/internal/services"
)

func newTestGateway(t *testing.T) *Gateway {
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
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	chats, err := services.NewChatService(
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

	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, &services.NoOpLogger{})
	return NewGateway(chats, registry, broadcaster, &services.NoOpLogger{}, nil, 8)
}

// envelope covers both OutboundEvent and Ack on the wire.
type envelope struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId"`
	Success   bool            `json:"success"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
}

func receiveEnvelope(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case payload := <-c.send:
		var ev envelope
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		return ev
	default:
		t.Fatal("expected a queued envelope")
		return envelope{}
	}
}

func inbound(t *testing.T, event, requestID string, payload interface{}) InboundEvent {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		data = raw
	}
	return InboundEvent{Event: event, RequestID: requestID, Data: data}
}

// Защищённые события от неавторизованного соединения получают отказ в
// подтверждении, сокет при этом не закрывается.
func TestDispatchRejectsUnauthenticatedClient(t *testing.T) {
	g := newTestGateway(t)
	c := testClient(identity.None())

	for _, event := range []string{EventSendMessage, EventMarkAsRead, EventTyping} {
		g.dispatch(c, inbound(t, event, "rq-1", map[string]string{"chatId": "chat-1"}))

		ack := receiveEnvelope(t, c)
		if ack.Event != EventAck || ack.Success || ack.Error != "Unauthorized" {
			t.Fatalf("%s: expected Unauthorized ack, got %+v", event, ack)
		}
		if ack.RequestID != "rq-1" {
			t.Fatalf("%s: expected echoed request id, got %q", event, ack.RequestID)
		}
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	g := newTestGateway(t)
	c := testClient(identity.FromAnonymous("visitor-1"))

	g.dispatch(c, inbound(t, "subscribe", "rq-2", nil))

	ack := receiveEnvelope(t, c)
	if ack.Success || ack.Error != "Unknown event" || ack.RequestID != "rq-2" {
		t.Fatalf("expected unknown-event ack, got %+v", ack)
	}
}

func TestDispatchJoinAndLeaveChat(t *testing.T) {
	g := newTestGateway(t)
	c := testClient(identity.FromAnonymous("visitor-1"))
	g.registry.Add(c)

	g.dispatch(c, inbound(t, EventJoinChat, "rq-1", map[string]string{"chatId": "chat-1"}))
	if ack := receiveEnvelope(t, c); !ack.Success {
		t.Fatalf("expected join ack, got %+v", ack)
	}
	if got := g.registry.RoomClients(ChatRoom("chat-1"), nil); len(got) != 1 {
		t.Fatalf("expected client in room, got %d members", len(got))
	}

	g.dispatch(c, inbound(t, EventLeaveChat, "rq-2", map[string]string{"chatId": "chat-1"}))
	if ack := receiveEnvelope(t, c); !ack.Success {
		t.Fatalf("expected leave ack, got %+v", ack)
	}
	if got := g.registry.RoomClients(ChatRoom("chat-1"), nil); len(got) != 0 {
		t.Fatalf("expected empty room, got %d members", len(got))
	}
}

func TestDispatchJoinChatRequiresChatID(t *testing.T) {
	g := newTestGateway(t)
	c := testClient(identity.FromAnonymous("visitor-1"))

	g.dispatch(c, inbound(t, EventJoinChat, "rq-1", map[string]string{}))

	ack := receiveEnvelope(t, c)
	if ack.Success || ack.Error != "chatId is required" {
		t.Fatalf("expected validation nack, got %+v", ack)
	}
}

func TestDispatchSendMessageBroadcastsAndAcks(t *testing.T) {
	g := newTestGateway(t)
	visitor := identity.FromAnonymous("visitor-1")

	chat, _, err := g.chats.CreateOrGetChat(context.Background(), visitor, "")
	if err != nil {
		t.Fatalf("CreateOrGetChat: %v", err)
	}

	sender := testClient(visitor)
	listener := testClient(identity.FromUser("mgr-1", domain.RoleManager))
	g.registry.Add(sender)
	g.registry.Add(listener)
	g.registry.Join(sender, ChatRoom(chat.ID))
	g.registry.Join(listener, ChatRoom(chat.ID))

	g.dispatch(sender, inbound(t, EventSendMessage, "rq-1", map[string]string{
		"chatId":  chat.ID,
		"content": "Здравствуйте",
	}))

	// Участник комнаты получает событие и подтверждение доставки.
	if ev := receiveEnvelope(t, listener); ev.Event != EventNewMessage {
		t.Fatalf("expected %s, got %+v", EventNewMessage, ev)
	}
	if ev := receiveEnvelope(t, listener); ev.Event != EventMessageDelivered {
		t.Fatalf("expected %s, got %+v", EventMessageDelivered, ev)
	}

	// Отправитель состоит в той же комнате и получает ack последним.
	var ack envelope
	for i := 0; i < 3; i++ {
		ack = receiveEnvelope(t, sender)
	}
	if ack.Event != EventAck || !ack.Success || ack.RequestID != "rq-1" {
		t.Fatalf("expected successful ack, got %+v", ack)
	}
	if len(ack.Data) == 0 {
		t.Fatal("expected the created message in the ack data")
	}
}

func TestDispatchSendMessageUnknownChat(t *testing.T) {
	g := newTestGateway(t)
	c := testClient(identity.FromAnonymous("visitor-1"))

	g.dispatch(c, inbound(t, EventSendMessage, "rq-1", map[string]string{
		"chatId":  "missing",
		"content": "Здравствуйте",
	}))

	ack := receiveEnvelope(t, c)
	if ack.Success || ack.Error == "" {
		t.Fatalf("expected domain error in ack, got %+v", ack)
	}
}

func TestDispatchTypingRelaysToOthers(t *testing.T) {
	g := newTestGateway(t)
	typist := testClient(identity.FromAnonymous("visitor-1"))
	other := testClient(identity.FromUser("mgr-1", domain.RoleManager))
	g.registry.Add(typist)
	g.registry.Add(other)
	g.registry.Join(typist, ChatRoom("chat-1"))
	g.registry.Join(other, ChatRoom("chat-1"))

	g.dispatch(typist, inbound(t, EventTyping, "rq-1", map[string]interface{}{
		"chatId":   "chat-1",
		"isTyping": true,
	}))

	if ev := receiveEnvelope(t, other); ev.Event != EventUserTyping {
		t.Fatalf("expected %s, got %+v", EventUserTyping, ev)
	}
	// Сам печатающий получает только подтверждение.
	if ack := receiveEnvelope(t, typist); ack.Event != EventAck || !ack.Success {
		t.Fatalf("expected ack only, got %+v", ack)
	}
	assertEmpty(t, typist)
}

func TestIdentityFromQuery(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		kind    identity.Kind
		id      string
		isStaff bool
	}{
		{"user with role", "/ws?userId=mgr-1&userRole=manager", identity.Authenticated, "mgr-1", true},
		{"user default role", "/ws?userId=user-1", identity.Authenticated, "user-1", false},
		{"anonymous", "/ws?anonymousUserId=visitor-1", identity.Anonymous, "visitor-1", false},
		{"no credentials", "/ws", identity.Unauthenticated, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.target, nil)
			got := identityFromQuery(r)
			if got.Kind != tc.kind || got.ID != tc.id || got.IsStaff() != tc.isStaff {
				t.Fatalf("unexpected identity: %+v", got)
			}
		})
	}
}

func TestJoinInitialRoomsForOwner(t *testing.T) {
	g := newTestGateway(t)
	visitor := identity.FromAnonymous("visitor-1")

	chat, _, err := g.chats.CreateOrGetChat(context.Background(), visitor, "")
	if err != nil {
		t.Fatalf("CreateOrGetChat: %v", err)
	}

	c := testClient(visitor)
	g.registry.Add(c)
	g.joinInitialRooms(c)

	if got := g.registry.RoomClients(ChatRoom(chat.ID), nil); len(got) != 1 {
		t.Fatalf("expected owner joined to the chat room, got %d members", len(got))
	}
}

func TestJoinInitialRoomsForStaff(t *testing.T) {
	g := newTestGateway(t)

	chat, _, err := g.chats.CreateOrGetChat(context.Background(), identity.FromAnonymous("visitor-1"), "")
	if err != nil {
		t.Fatalf("CreateOrGetChat: %v", err)
	}

	c := testClient(identity.FromUser("mgr-1", domain.RoleManager))
	g.registry.Add(c)
	g.joinInitialRooms(c)

	if got := g.registry.RoomClients(RoomManagers, nil); len(got) != 1 {
		t.Fatalf("expected staff in the managers room, got %d members", len(got))
	}
	if got := g.registry.RoomClients(ChatRoom(chat.ID), nil); len(got) != 1 {
		t.Fatalf("expected staff joined to the active chat room, got %d members", len(got))
	}
}

func TestJoinInitialRoomsSkipsUnknownIdentity(t *testing.T) {
	g := newTestGateway(t)
	c := testClient(identity.None())

	g.joinInitialRooms(c)

	if got := g.registry.RoomCount(); got != 0 {
		t.Fatalf("expected no rooms, got %d", got)
	}
}
