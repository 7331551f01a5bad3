// Package ws implements the WebSocket adapter pushing live activity to
// connected dashboard sessions.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// subscribeDeadline bounds how long a connection may stay unsubscribed.
const subscribeDeadline = 10 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// subscribeRequest is the handshake frame a client must send first. The
// transport carries no tenant context; the client self-identifies here.
type subscribeRequest struct {
	Type     string `json:"type"`
	TenantID string `json:"tenant_id"`
	APIKey   string `json:"api_key"`
}

// Authenticator verifies a dashboard session's tenant credentials.
type Authenticator func(ctx context.Context, tenantID, apiKey string) error

// conn wraps a single subscribed WebSocket connection.
type conn struct {
	ws       *websocket.Conn
	cancel   context.CancelFunc
	tenantID string
}

// Hub manages active WebSocket connections segmented by tenant and fans
// events out to one tenant's sessions at a time.
type Hub struct {
	auth Authenticator

	mu    sync.RWMutex
	conns map[string]map[*conn]struct{} // tenant id -> connection set
}

// NewHub creates a WebSocket hub. auth may be nil, in which case subscribe
// frames are accepted without credential verification (tests only).
func NewHub(auth Authenticator) *Hub {
	return &Hub{
		auth:  auth,
		conns: make(map[string]map[*conn]struct{}),
	}
}

// HandleWS upgrades the connection and waits for the subscribe handshake.
// Connections that fail to subscribe within the deadline are dropped.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())

	subCtx, subCancel := context.WithTimeout(ctx, subscribeDeadline)
	defer subCancel()

	_, data, err := sock.Read(subCtx)
	if err != nil {
		cancel()
		_ = sock.Close(websocket.StatusPolicyViolation, "subscribe required")
		return
	}

	var sub subscribeRequest
	if err := json.Unmarshal(data, &sub); err != nil || sub.Type != "subscribe" || sub.TenantID == "" {
		cancel()
		_ = sock.Close(websocket.StatusPolicyViolation, "invalid subscribe frame")
		return
	}

	if h.auth != nil {
		if err := h.auth(subCtx, sub.TenantID, sub.APIKey); err != nil {
			slog.Warn("websocket subscribe rejected", "tenant", sub.TenantID, "error", err)
			cancel()
			_ = sock.Close(websocket.StatusPolicyViolation, "unauthorized")
			return
		}
	}

	c := &conn{ws: sock, cancel: cancel, tenantID: sub.TenantID}
	h.add(c)

	ack, _ := json.Marshal(Message{Type: "subscribed"})
	if err := sock.Write(ctx, websocket.MessageText, ack); err != nil {
		h.remove(c)
		_ = sock.Close(websocket.StatusNormalClosure, "")
		return
	}

	slog.Info("websocket subscribed", "tenant", sub.TenantID, "remote", r.RemoteAddr)

	// net/http cancels r.Context() the moment the handler returns, even
	// for hijacked connections, so the handler must stay blocked for the
	// session lifetime. The read loop consumes pings and detects
	// disconnects; remove() cancels ctx to force it out.
	defer func() {
		h.remove(c)
		_ = sock.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		if _, _, err := sock.Read(ctx); err != nil {
			return
		}
	}
}

// BroadcastToTenant sends a message to every session subscribed for the
// tenant. Best-effort, at most once per client; tenants with no sessions
// are skipped without error.
func (h *Hub) BroadcastToTenant(ctx context.Context, tenantID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns[tenantID] {
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("websocket write failed", "tenant", tenantID, "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of subscribed connections across all tenants.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}

// TenantConnectionCount returns the number of subscribed connections for one tenant.
func (h *Hub) TenantConnectionCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[tenantID])
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.tenantID]
	if !ok {
		set = make(map[*conn]struct{})
		h.conns[c.tenantID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.tenantID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		c.cancel()
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.tenantID)
		}
		slog.Info("websocket disconnected", "tenant", c.tenantID)
	}
}
