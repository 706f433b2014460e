package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sparkfn/webhook-listener/internal/domain"
	"github.com/sparkfn/webhook-listener/internal/metrics"
)

const (
	// sendBuffer is how many pending messages a subscriber may fall behind
	// before it is considered dead and disconnected.
	sendBuffer = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

type helloMessage struct {
	Type       string   `json:"type"`
	Namespaces []string `json:"namespaces"`
}

type eventMessage struct {
	Type  string              `json:"type"`
	Event *domain.EventRecord `json:"event"`
}

type clearMessage struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
}

// Hub tracks the currently connected WebSocket subscribers and fans captured
// events out to all of them. Subscribers are not namespace-filtered: every
// subscriber sees every namespace's traffic and filters client-side.
type Hub struct {
	namespaces []string
	metrics    *metrics.Metrics
	log        *zap.Logger
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub that greets each new subscriber with the configured
// namespace list.
func NewHub(namespaces []string, m *metrics.Metrics, log *zap.Logger) *Hub {
	return &Hub{
		namespaces: namespaces,
		metrics:    m,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request to a WebSocket, registers the subscriber, and
// immediately queues the hello message so the observer learns the namespace
// set without polling.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	hello, err := json.Marshal(helloMessage{Type: "hello", Namespaces: h.namespaces})
	if err != nil {
		h.log.Error("Failed to marshal hello message", zap.Error(err))
		conn.Close()
		return
	}
	c.send <- hello

	h.mu.Lock()
	h.clients[c] = struct{}{}
	subscribers := len(h.clients)
	h.mu.Unlock()
	h.metrics.Subscribers.Set(float64(subscribers))

	h.log.Info("Subscriber connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("subscribers", subscribers))

	go h.writePump(c)
	go h.readPump(c)
}

// BroadcastEvent pushes a capture notification to every subscriber.
func (h *Hub) BroadcastEvent(event *domain.EventRecord) {
	payload, err := json.Marshal(eventMessage{Type: "event", Event: event})
	if err != nil {
		h.log.Error("Failed to marshal event message",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return
	}
	h.broadcast(payload)
}

// BroadcastClear pushes a namespace-clear notification to every subscriber.
func (h *Hub) BroadcastClear(ns string) {
	payload, err := json.Marshal(clearMessage{Type: "clear", Namespace: ns})
	if err != nil {
		h.log.Error("Failed to marshal clear message", zap.Error(err))
		return
	}
	h.broadcast(payload)
}

// broadcast queues the payload for every subscriber. A subscriber whose send
// buffer is full is dropped; one slow connection must never block or abort
// delivery to the rest.
func (h *Hub) broadcast(payload []byte) {
	var stale []*client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
			h.metrics.BroadcastsSent.Inc()
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.metrics.BroadcastsDropped.Inc()
		h.log.Warn("Dropping slow subscriber",
			zap.String("remote_addr", c.conn.RemoteAddr().String()))
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	subscribers := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.metrics.Subscribers.Set(float64(subscribers))
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards inbound frames (the channel is server-to-client only)
// and unregisters the subscriber when the connection dies.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
