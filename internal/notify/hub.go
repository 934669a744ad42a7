package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/liferpg/internal/types"
)

const writeWait = 5 * time.Second

const (
	MessageRender       = "render"
	MessageNotify       = "notify"
	MessageToastDismiss = "toast_dismiss"
)

// Message is the envelope written to websocket clients.
type Message struct {
	Type      string           `json:"type"`
	Dashboard *types.Dashboard `json:"dashboard,omitempty"`
	*Event
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub broadcasts renders and notifications to connected websocket clients.
// New clients immediately receive the most recent render.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	lastRender  []byte
	// renderMu keeps renders in revision order from check to send.
	renderMu     sync.Mutex
	lastRevision uint64
	toaster     *Toaster
	upgrader    websocket.Upgrader
}

// NewHub creates a hub whose notifications are dismissed after toastDuration.
func NewHub(toastDuration time.Duration) *Hub {
	h := &Hub{
		subscribers: make(map[string]*subscriber),
		// A nil CheckOrigin accepts clients without an Origin header and
		// browsers on the same host only.
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.toaster = NewToaster(toastDuration, func() {
		h.broadcast(Message{Type: MessageToastDismiss})
	})
	return h
}

// Render broadcasts the dashboard and remembers it for late subscribers. A
// dashboard older than one already rendered is dropped; revision 0 is always
// rendered.
func (h *Hub) Render(d types.Dashboard) {
	h.renderMu.Lock()
	defer h.renderMu.Unlock()
	if d.Revision != 0 && d.Revision < h.lastRevision {
		slog.Debug("stale render dropped", "component", "notify", "revision", d.Revision)
		return
	}
	if d.Revision != 0 {
		h.lastRevision = d.Revision
	}

	data, err := json.Marshal(Message{Type: MessageRender, Dashboard: &d})
	if err != nil {
		slog.Error("marshal render failed", "component", "notify", "error", err)
		return
	}
	h.mu.Lock()
	h.lastRender = data
	h.mu.Unlock()
	h.send(data)
}

// Notify broadcasts e and schedules its dismissal.
func (h *Hub) Notify(e Event) {
	h.broadcast(Message{Type: MessageNotify, Event: &e})
	h.toaster.Show()
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the request and streams messages until the client goes
// away. Anything the client sends is read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "component", "notify", "error", err)
		return
	}

	id := ulid.Make().String()
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	h.subscribers[id] = sub
	initial := h.lastRender
	h.mu.Unlock()

	slog.Debug("websocket subscribed", "component", "notify", "subscriber", id)

	if initial != nil {
		if err := sub.write(initial); err != nil {
			h.disconnect(id)
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.disconnect(id)
			return
		}
	}
}

// Close disconnects every client and cancels the pending dismissal.
func (h *Hub) Close() {
	h.toaster.Stop()
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.conn.Close()
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message failed", "component", "notify", "type", msg.Type, "error", err)
		return
	}
	h.send(data)
}

func (h *Hub) send(data []byte) {
	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			slog.Warn("websocket send failed",
				"component", "notify",
				"subscriber", id,
				"error", err,
			)
			h.disconnect(id)
		}
	}
}

func (h *Hub) disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
