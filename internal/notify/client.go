package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Cleamaster322/library/pkg/tokens"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// origins are governed by the CORS middleware
		return true
	},
}

// Identity is the optional caller attached to a connection.
type Identity struct {
	UserID string
	Role   tokens.Role
}

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	topic string
	ident Identity

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func (c *Client) displayUser() string {
	if c.ident.UserID == "" {
		return "Anonymous"
	}
	return c.ident.UserID
}

func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Serve upgrades the request and subscribes the connection to topic until it closes.
// The caller must have checked websocket.IsWebSocketUpgrade; a failed upgrade has
// already been answered by the upgrader.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, ident Identity) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		hub:   h,
		conn:  conn,
		topic: topic,
		ident: ident,
		send:  make(chan []byte, h.opts.SendBuffer),
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		return conn.Close()
	}
	h.logger.Debug("ws_subscribed", "topic", topic, "user", c.displayUser(), "role", string(ident.Role))

	go c.writePump()
	go c.readPump()
	return nil
}

// readPump discards inbound messages; reading keeps pong handling and the deadline alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	opts := c.hub.opts
	wait := opts.PingInterval + opts.PongTimeout
	c.conn.SetReadLimit(opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws_read_error", "user", c.displayUser(), "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	}
}

func (c *Client) writePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.PongTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.PongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
