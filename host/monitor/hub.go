package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ardnew/fsrpad/pkg"
)

// Hub limits.
const (
	clientQueue  = 16
	writeTimeout = 2 * time.Second
	maxCommand   = 512
)

// errorMessage is sent to a websocket client whose command failed.
type errorMessage struct {
	Error string `json:"error"`
}

// hubClient is one websocket connection. Only its writer goroutine writes
// to conn.
type hubClient struct {
	conn *websocket.Conn
	send chan any
}

// Hub serves samples over HTTP and websockets.
type Hub struct {
	upgrader websocket.Upgrader
	writer   ThresholdWriter

	mutex   sync.Mutex
	clients map[*hubClient]struct{}
	last    Sample
	have    bool
}

// NewHub creates a hub. Threshold commands go to w; a nil w makes the hub
// read-only.
func NewHub(w ThresholdWriter) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writer:  w,
		clients: make(map[*hubClient]struct{}),
	}
}

// Handler returns the hub's routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/api/state", h.serveState)
	return mux
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// WriteSample records s as the latest sample and queues it to every
// client. A client whose queue is full misses the sample.
func (h *Hub) WriteSample(_ context.Context, s Sample) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.last, h.have = s, true
	for c := range h.clients {
		select {
		case c.send <- s:
		default:
			pkg.LogDebug(pkg.ComponentMonitor, "websocket client lagging", "remote", c.conn.RemoteAddr().String())
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

func (h *Hub) serveState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mutex.Lock()
	s, have := h.last, h.have
	h.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !have {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(errorMessage{Error: "no sample yet"})
		return
	}
	json.NewEncoder(w).Encode(s)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.LogWarn(pkg.ComponentMonitor, "websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxCommand)

	c := &hubClient{conn: conn, send: make(chan any, clientQueue)}
	h.mutex.Lock()
	h.clients[c] = struct{}{}
	if h.have {
		c.send <- h.last
	}
	h.mutex.Unlock()
	pkg.LogDebug(pkg.ComponentMonitor, "websocket client connected", "remote", conn.RemoteAddr().String())

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)

	h.mutex.Lock()
	delete(h.clients, c)
	h.mutex.Unlock()
	close(done)
	conn.Close()
	pkg.LogDebug(pkg.ComponentMonitor, "websocket client disconnected", "remote", conn.RemoteAddr().String())
}

func (h *Hub) writeLoop(c *hubClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *hubClient) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				pkg.LogDebug(pkg.ComponentMonitor, "websocket read failed", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Thresholds == nil {
			h.reply(c, errorMessage{Error: "expected {\"thresholds\":[a,b,c,d]}"})
			continue
		}
		if h.writer == nil {
			h.reply(c, errorMessage{Error: "read-only"})
			continue
		}
		if err := h.writer.WriteThresholds(*cmd.Thresholds); err != nil {
			h.reply(c, errorMessage{Error: err.Error()})
		}
	}
}

func (h *Hub) reply(c *hubClient, msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

var _ Sink = (*Hub)(nil)
