package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/partshub/chat-service/internal/domain"
	"github.com/partshub/chat-service/internal/identity"
	"github.com/partshub/chat-service/internal/services"
	chatsvc "github.com/partshub/chat-service/internal/services/chat"
)

// Gateway upgrades HTTP requests to websocket connections, resolves the
// caller's identity from the handshake, auto-joins rooms, and dispatches
// inbound events to the chat service.
type Gateway struct {
	chats       *services.ChatService
	registry    *Registry
	broadcaster *Broadcaster
	logger      services.Logger
	upgrader    websocket.Upgrader
	sendBuffer  int
}

func NewGateway(
	chats *services.ChatService,
	registry *Registry,
	broadcaster *Broadcaster,
	logger services.Logger,
	allowedOrigins []string,
	sendBuffer int,
) *Gateway {
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &Gateway{
		chats:       chats,
		registry:    registry,
		broadcaster: broadcaster,
		logger:      logger,
		sendBuffer:  sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWS is the websocket endpoint. The handshake carries
// userId/anonymousUserId/userRole in the query string and they are
// trusted as-is; there is no cryptographic verification on this path.
// An unauthenticated connection is accepted but joins no rooms.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := identityFromQuery(r)

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(g, conn, id, g.sendBuffer)
	g.registry.Add(client)
	g.joinInitialRooms(client)

	g.logger.Info("websocket connected",
		"identityID", id.ID,
		"kind", id.Kind.String(),
		"connections", g.registry.ConnectionCount(id.ID),
	)

	go client.writePump()
	go client.readPump()
}

func identityFromQuery(r *http.Request) identity.Identity {
	q := r.URL.Query()
	if userID := q.Get("userId"); userID != "" {
		role := domain.UserRole(strings.ToUpper(q.Get("userRole")))
		if role == "" {
			role = domain.RoleCustomer
		}
		return identity.FromUser(userID, role)
	}
	if anonID := q.Get("anonymousUserId"); anonID != "" {
		return identity.FromAnonymous(anonID)
	}
	return identity.None()
}

// joinInitialRooms joins every chat room the identity owns and, for
// staff, the shared manager room.
func (g *Gateway) joinInitialRooms(c *Client) {
	id := c.identity
	if !id.Known() {
		return
	}
	if id.IsStaff() {
		g.registry.Join(c, RoomManagers)
		staffChats, err := g.chats.GetManagerChats(context.Background(), id.ID)
		if err != nil {
			g.logger.Warn("failed to load manager chats on connect", "managerID", id.ID, "error", err)
			return
		}
		for _, item := range staffChats {
			g.registry.Join(c, ChatRoom(item.ID))
		}
		return
	}

	owned, err := g.chats.GetUserChats(context.Background(), id)
	if err != nil {
		g.logger.Warn("failed to load chats on connect", "identityID", id.ID, "error", err)
		return
	}
	for _, item := range owned {
		g.registry.Join(c, ChatRoom(item.ID))
	}
}

func (g *Gateway) disconnect(c *Client) {
	g.registry.Remove(c)
	g.logger.Info("websocket disconnected",
		"identityID", c.identity.ID,
		"connections", g.registry.ConnectionCount(c.identity.ID),
	)
}

// dispatch routes one inbound event. Domain errors come back inside the
// acknowledgment; the socket stays open.
func (g *Gateway) dispatch(c *Client, ev InboundEvent) {
	switch ev.Event {
	case EventJoinChat:
		g.handleJoinChat(c, ev)
	case EventLeaveChat:
		g.handleLeaveChat(c, ev)
	case EventSendMessage:
		g.handleSendMessage(c, ev)
	case EventMarkAsRead:
		g.handleMarkAsRead(c, ev)
	case EventTyping:
		g.handleTyping(c, ev)
	default:
		c.enqueue(Ack{Event: EventAck, RequestID: ev.RequestID, Success: false, Error: "Unknown event"})
	}
}

func (g *Gateway) ack(c *Client, ev InboundEvent, data interface{}) {
	c.enqueue(Ack{Event: EventAck, RequestID: ev.RequestID, Success: true, Data: data})
}

func (g *Gateway) nack(c *Client, ev InboundEvent, message string) {
	c.enqueue(Ack{Event: EventAck, RequestID: ev.RequestID, Success: false, Error: message})
}

func (g *Gateway) nackErr(c *Client, ev InboundEvent, err error) {
	g.logger.Warn("socket event failed", "event", ev.Event, "identityID", c.identity.ID, "error", err)
	g.nack(c, ev, chatsvc.PublicMessage(err))
}

func (g *Gateway) handleJoinChat(c *Client, ev InboundEvent) {
	var p joinChatPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil || p.ChatID == "" {
		g.nack(c, ev, "chatId is required")
		return
	}
	g.registry.Join(c, ChatRoom(p.ChatID))
	g.ack(c, ev, nil)
}

func (g *Gateway) handleLeaveChat(c *Client, ev InboundEvent) {
	var p joinChatPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil || p.ChatID == "" {
		g.nack(c, ev, "chatId is required")
		return
	}
	g.registry.Leave(c, ChatRoom(p.ChatID))
	g.ack(c, ev, nil)
}

func (g *Gateway) handleSendMessage(c *Client, ev InboundEvent) {
	if !c.identity.Known() {
		g.nack(c, ev, "Unauthorized")
		return
	}
	var p sendMessagePayload
	if err := json.Unmarshal(ev.Data, &p); err != nil || p.ChatID == "" {
		g.nack(c, ev, "chatId is required")
		return
	}

	msg, err := g.chats.SendMessage(context.Background(), p.ChatID, c.identity.ID, p.Content)
	if err != nil {
		g.nackErr(c, ev, err)
		return
	}

	g.broadcaster.NewMessage(p.ChatID, *msg)
	if !c.identity.IsStaff() {
		g.broadcaster.ChatUpdate(p.ChatID, *msg)
	}
	g.ack(c, ev, msg)
}

func (g *Gateway) handleMarkAsRead(c *Client, ev InboundEvent) {
	if !c.identity.Known() {
		g.nack(c, ev, "Unauthorized")
		return
	}
	var p markAsReadPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil || p.ChatID == "" {
		g.nack(c, ev, "chatId is required")
		return
	}

	count, err := g.chats.MarkMessagesAsRead(context.Background(), p.ChatID, c.identity.ID)
	if err != nil {
		g.nackErr(c, ev, err)
		return
	}

	g.broadcaster.MessagesRead(p.ChatID, c.identity.ID, count, c)
	g.ack(c, ev, map[string]interface{}{"count": count})
}

func (g *Gateway) handleTyping(c *Client, ev InboundEvent) {
	if !c.identity.Known() {
		g.nack(c, ev, "Unauthorized")
		return
	}
	var p typingPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil || p.ChatID == "" {
		g.nack(c, ev, "chatId is required")
		return
	}

	g.broadcaster.UserTyping(p.ChatID, c.identity.ID, p.IsTyping, c)
	g.ack(c, ev, nil)
}
