package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// ClientMessage is a frame sent by the browser.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// ServerMessage is a frame pushed to the browser.
type ServerMessage struct {
	Type  string       `json:"type"` // toast, pong
	Toast *model.Toast `json:"toast,omitempty"`
}

// Client is one websocket connection bound to a session.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	SessionID     string
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, sendBufferSize),
	}
}

type delivery struct {
	sessionID string
	client    *Client // nil means every connection of the session
	message   []byte
}

// pendingToast is a toast held for a session that has no connection yet.
type pendingToast struct {
	message  []byte
	queuedAt time.Time
}

// Hub tracks the connections of every session (a session may have several tabs open)
// and fans toasts out to them.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	pending    map[string][]pendingToast
	now        func() time.Time

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan delivery, 1024),
		pending:    make(map[string][]pendingToast),
		now:        time.Now,
	}
}

// Run processes registrations and deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(pendingTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.dispatch(d)

		case <-ticker.C:
			h.prunePending()
		}
	}
}

// add registers the client and flushes toasts queued before the session connected.
func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
	count := len(h.clients[client.SessionID])
	queued := h.pending[client.SessionID]
	delete(h.pending, client.SessionID)
	h.mu.Unlock()

	cutoff := h.now().Add(-pendingTTL)
	for _, p := range queued {
		if p.queuedAt.Before(cutoff) {
			continue
		}
		select {
		case client.Send <- p.message:
		default:
		}
	}

	logger.Info("WebSocket client registered", map[string]interface{}{
		"session_id":  client.SessionID,
		"connections": count,
		"flushed":     len(queued),
	})
}

func (h *Hub) dispatch(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[d.sessionID]
	if len(clients) == 0 {
		if d.client == nil {
			h.queue(d.sessionID, d.message)
		}
		return
	}
	for _, client := range clients {
		if d.client != nil && d.client != client {
			continue
		}
		select {
		case client.Send <- d.message:
		default:
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"session_id": d.sessionID,
			})
		}
	}
}

// queue holds at most maxPendingPerSession toasts, dropping the oldest. Caller holds h.mu.
func (h *Hub) queue(sessionID string, message []byte) {
	list := append(h.pending[sessionID], pendingToast{message: message, queuedAt: h.now()})
	if len(list) > maxPendingPerSession {
		list = list[len(list)-maxPendingPerSession:]
	}
	h.pending[sessionID] = list
}

func (h *Hub) prunePending() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().Add(-pendingTTL)
	for id, list := range h.pending {
		kept := list[:0]
		for _, p := range list {
			if !p.queuedAt.Before(cutoff) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(h.pending, id)
		} else {
			h.pending[id] = kept
		}
	}
}

func (h *Hub) pendingCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pending[sessionID])
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"session_id":  client.SessionID,
		"connections": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Notify queues a toast for every connection of the session. A session without a connection
// keeps its toasts for pendingTTL so one sent right after login reaches the first socket.
// Toasts arriving while the delivery queue is full are dropped.
func (h *Hub) Notify(sessionID string, toast model.Toast) {
	data, err := json.Marshal(ServerMessage{Type: "toast", Toast: &toast})
	if err != nil {
		logger.Error("Failed to marshal toast", err)
		return
	}

	select {
	case h.deliver <- delivery{sessionID: sessionID, message: data}:
	default:
		logger.Warn("Delivery queue full, toast dropped", map[string]interface{}{
			"session_id": sessionID,
		})
	}
}

// DisconnectSession closes every connection of the session, e.g. on logout.
func (h *Hub) DisconnectSession(sessionID string) {
	h.mu.Lock()
	list := append([]*Client(nil), h.clients[sessionID]...)
	delete(h.pending, sessionID)
	h.mu.Unlock()

	for _, c := range list {
		h.Unregister(c)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// isConnected reports whether the session has at least one open connection.
func (h *Hub) isConnected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// HandleClientMessage answers pings; anything else is ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		data, _ := json.Marshal(ServerMessage{Type: "pong"})
		select {
		case h.deliver <- delivery{sessionID: client.SessionID, client: client, message: data}:
		default:
		}
	}
}
