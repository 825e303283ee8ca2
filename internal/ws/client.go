package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partshub/chat-service/internal/identity"
	"github.com/partshub/chat-service/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

// Client is one live websocket connection with its identity attached at
// connect time. The identity is never mutated afterwards; handlers read
// it, they do not write it.
type Client struct {
	gateway  *Gateway
	conn     *websocket.Conn
	send     chan []byte
	identity identity.Identity
	logger   services.Logger

	// rooms is owned by the Registry and guarded by its mutex.
	rooms map[string]struct{}
}

func newClient(g *Gateway, conn *websocket.Conn, id identity.Identity, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		gateway:  g,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		identity: id,
		logger:   g.logger,
	}
}

// Identity returns the identity resolved at connect time.
func (c *Client) Identity() identity.Identity {
	return c.identity
}

// enqueue serializes v and queues it for delivery. A client whose buffer
// is full drops the event rather than blocking the broadcaster; such a
// client resynchronizes through the read path.
func (c *Client) enqueue(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to marshal outbound event", "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("dropping event for slow client", "identityID", c.identity.ID)
	}
}

// readPump owns all reads on the connection. It parses inbound envelopes
// and hands them to the gateway dispatcher; events for one connection are
// processed in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gateway.logger.Debug("websocket closed unexpectedly", "identityID", c.identity.ID, "error", err)
			}
			return
		}

		var ev InboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.enqueue(Ack{Event: EventAck, Success: false, Error: "Invalid event payload"})
			continue
		}
		c.gateway.dispatch(c, ev)
	}
}

// writePump owns all writes on the connection and keeps it alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
