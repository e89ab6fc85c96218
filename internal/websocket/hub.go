package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"schoolleave/internal/middleware"
	"schoolleave/internal/model"
	"schoolleave/internal/session"
)

// Event is the envelope written to every client.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *session.Store
}

type delivery struct {
	message []byte
	visible func(model.Identity) bool
}

// Hub maintains the set of active clients and delivers events to the ones allowed to see them
type Hub struct {
	clients    map[*Client]bool
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	upgrader   websocket.Upgrader
}

// NewHub initializes a new WS Hub instance. An empty origin list accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		deliver:    make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Debug("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
			slog.Debug("websocket client disconnected")
		case d := <-h.deliver:
			h.mu.Lock()
			for client := range h.clients {
				identity, ok := client.Session.Current()
				if !ok {
					// Signed out or expired since connecting.
					h.drop(client)
					continue
				}
				if d.visible != nil && !d.visible(identity) {
					continue
				}
				select {
				case client.Send <- d.message:
				default:
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// Publish queues an event for every client whose identity passes visible.
func (h *Hub) Publish(topic string, payload any, visible func(model.Identity) bool) {
	message, err := json.Marshal(Event{Type: topic, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		slog.Error("failed to encode websocket event", "type", topic, "error", err)
		return
	}
	h.deliver <- delivery{message: message, visible: visible}
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// writePump handles writing messages from the Hub to the WebSocket connection.
// Each event goes in its own frame so clients can decode frames as JSON.
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		// Client messages are ignored; reading keeps close frames flowing.
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			break
		}
	}
}

// ServeWs upgrades an authenticated request. The token comes from the token
// query parameter, the access_token cookie or a Bearer header.
func ServeWs(hub *Hub, sessions *session.Manager, c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString = middleware.TokenFromRequest(c)
	}

	store := sessions.Resume(c.Request.Context(), tokenString)
	if _, ok := store.Current(); !ok {
		slog.Debug("websocket connection rejected: no session")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), Session: store}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
