package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lingtools/xliffd/internal/logging"
)

// Editor frontends subscribe to /ws for push notification of long
// operations: batch QA runs, saves of large documents, journal
// replays. Messages are fire-and-forget; a client that cannot keep up
// is dropped rather than allowed to stall the hub.

const (
	// pongWait is how long a client may go silent before the read
	// side gives up; pings go out early enough to refresh it.
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	sendQueueSize = 256
)

// GlobalHub is the process-wide hub; nil until the server starts it.
var GlobalHub *Hub

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkWebSocketOrigin,
}

// checkWebSocketOrigin applies the same origin policy as the CORS
// layer. Non-browser clients send no Origin header and are let
// through; the API key still gates them.
func checkWebSocketOrigin(r *http.Request) bool {
	if len(ServerConfig.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(ServerConfig.AllowedOrigins, origin)
}

// ProgressMessage is the wire format for push updates.
type ProgressMessage struct {
	Type      string                 `json:"type"`      // "progress", "complete", "error"
	Operation string                 `json:"operation"` // "edit", "save", "qa"
	Stage     string                 `json:"stage"`
	Progress  int                    `json:"progress"` // 0-100
	Message   string                 `json:"message"`
	Timestamp string                 `json:"timestamp"` // RFC3339
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Client is one subscriber connection with its outbound queue.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcast messages out to every connected client.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.WebSocketEvent("client_connected", n)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.WebSocketEvent("client_disconnected", n)
}

func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			// Queue full means the client stopped reading.
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// Run is the hub's event loop. The server starts it once in a
// goroutine; it never returns.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// Broadcast queues msg for every client, stamping the send time when
// the caller left it empty. Dropped silently when the queue is full.
func (h *Hub) Broadcast(msg ProgressMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal progress message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastProgress reports a stage of a running operation. Safe to
// call before the hub exists, so core code need not check.
func BroadcastProgress(operation, stage, message string, progress int) {
	if GlobalHub == nil {
		return
	}
	GlobalHub.Broadcast(ProgressMessage{
		Type:      "progress",
		Operation: operation,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
	})
}

// BroadcastComplete reports a finished operation with result details.
func BroadcastComplete(operation, message string, data map[string]interface{}) {
	if GlobalHub == nil {
		return
	}
	GlobalHub.Broadcast(ProgressMessage{
		Type:      "complete",
		Operation: operation,
		Progress:  100,
		Message:   message,
		Data:      data,
	})
}

// BroadcastError reports a failed operation.
func BroadcastError(operation, message string) {
	if GlobalHub == nil {
		return
	}
	GlobalHub.Broadcast(ProgressMessage{
		Type:      "error",
		Operation: operation,
		Message:   message,
	})
}

// readPump drains inbound frames. Clients send nothing meaningful;
// reading is what surfaces close frames and keeps pongs flowing.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			return
		}
	}
}

// writePump owns all writes on the connection: queued messages plus
// keepalive pings. Queued backlog is coalesced into one frame,
// newline-separated, to cut syscalls during bursts.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			for i := 0; i < len(c.send); i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
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

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if GlobalHub == nil {
		http.Error(w, "WebSocket hub not initialized", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: GlobalHub, conn: conn, send: make(chan []byte, sendQueueSize)}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
