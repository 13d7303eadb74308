package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one push to the browser tabs watching a session. Events with a
// non-zero Version are delivered only if newer than the last one for the topic.
type Event struct {
	Type      string            `json:"type"`
	Version   uint64            `json:"version,omitempty"`
	View      any               `json:"view"`
	Fragments map[string]string `json:"fragments,omitempty"`
	At        time.Time         `json:"at"`
}

// Hub fans session updates out to websocket clients subscribed by session id.
type Hub struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[string]map[*client]struct{}
	versions map[string]uint64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:  map[string]map[*client]struct{}{},
		versions: map[string]uint64{},
	}
}

// Serve upgrades the request and streams events for topic until the client goes away.
// initial, when non-nil, is sent before any published event.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, initial *Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.mu.Lock()
	if initial != nil && h.advanceLocked(topic, initial.Version) {
		if b, err := encode(*initial); err == nil {
			c.send <- b
		}
	}
	h.addLocked(topic, c)
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(topic, c)
}

func (h *Hub) Publish(topic string, ev Event) {
	b, err := encode(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.advanceLocked(topic, ev.Version) {
		return
	}
	for c := range h.clients[topic] {
		select {
		case c.send <- b:
		default:
			// Slow client; drop it.
			h.dropLocked(topic, c)
		}
	}
}

// Subscribers counts open connections for topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[topic])
}

// Close disconnects every client watching topic and forgets its version.
func (h *Hub) Close(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[topic] {
		h.dropLocked(topic, c)
	}
	delete(h.versions, topic)
}

// advanceLocked records version for topic and reports whether it is newer
// than anything sent so far. Unversioned events always pass.
func (h *Hub) advanceLocked(topic string, version uint64) bool {
	if version == 0 {
		return true
	}
	if version <= h.versions[topic] {
		return false
	}
	h.versions[topic] = version
	return true
}

func encode(ev Event) ([]byte, error) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return json.Marshal(ev)
}

func (h *Hub) addLocked(topic string, c *client) {
	set := h.clients[topic]
	if set == nil {
		set = map[*client]struct{}{}
		h.clients[topic] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) removeClient(topic string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(topic, c)
}

func (h *Hub) dropLocked(topic string, c *client) {
	set := h.clients[topic]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, topic)
	}
	close(c.send)
	_ = c.conn.Close()
}

func (h *Hub) readPump(topic string, c *client) {
	defer h.removeClient(topic, c)
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
