// Package events pushes conversation-change notifications to connected
// UI clients so the sidebar can refresh without polling shared state.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeTimeout = 5 * time.Second

	// sendBuffer bounds the per-subscriber event queue. A subscriber
	// that stops draining it gets dropped rather than stalling the
	// notify path.
	sendBuffer = 16
)

// Event is a single notification pushed over the socket.
type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// subscriber pairs a connection with its outbound queue. All writes to
// the connection happen on its writeLoop goroutine.
type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

// Hub tracks WebSocket subscribers and fans events out to them.
// Broadcasts only enqueue; network I/O never runs under the hub lock,
// so a stalled subscriber cannot block the session controller's
// save/notify path.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// RegisterRoutes mounts the event socket.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSocket)
}

// NotifyConversation broadcasts the active conversation id. An empty id
// means the session is fresh and unsaved.
func (h *Hub) NotifyConversation(id string) {
	h.broadcast(Event{Type: "conversation", ID: id})
}

// NotifyListChanged signals that the stored conversation list changed.
func (h *Hub) NotifyListChanged() {
	h.broadcast(Event{Type: "conversations"})
}

func (h *Hub) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Event, sendBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(sub)

	// Drain the connection until the client goes away; inbound frames
	// carry nothing we act on.
	go func() {
		defer h.drop(sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast enqueues the event for every subscriber. A subscriber with
// a full queue is dropped instead of blocking the caller; closing its
// queue ends its writeLoop, which closes the connection.
func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- event:
		default:
			log.Debug().Msg("dropping stalled event subscriber")
			delete(h.subs, sub)
			close(sub.send)
		}
	}
}

// writeLoop owns all writes to one connection.
func (h *Hub) writeLoop(sub *subscriber) {
	for event := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := sub.conn.WriteJSON(event); err != nil {
			log.Debug().Err(err).Msg("dropping stale event subscriber")
			break
		}
	}
	h.drop(sub)
}

// drop unregisters a subscriber and closes its queue exactly once.
// Closing the queue under the lock keeps broadcast from sending on a
// closed channel.
func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
	h.mu.Unlock()
	_ = sub.conn.Close()
}
