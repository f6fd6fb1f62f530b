package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sflstudio/internal/logging"
)

// WSMessage is the frame pushed to connected UIs.
type WSMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const wsSendBuffer = 16

type wsConn struct {
	conn *websocket.Conn
	send chan WSMessage
	once sync.Once
	done chan struct{}
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub fans store change notifications out to websocket clients. Slow
// consumers get disconnected rather than blocking the broadcast.
type Hub struct {
	mu       sync.Mutex
	conns    map[*wsConn]struct{}
	logger   logging.Logger
	upgrader websocket.Upgrader
	closed   bool
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		conns:  make(map[*wsConn]struct{}),
		logger: logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS middleware already gates the HTTP side; the socket
			// carries no secrets.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the request and serves the connection until either side
// closes it.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	wc := &wsConn{
		conn: conn,
		send: make(chan WSMessage, wsSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		wc.close()
		return
	}
	h.conns[wc] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(wc)
	h.readLoop(wc)
}

func (h *Hub) writeLoop(wc *wsConn) {
	for {
		select {
		case <-wc.done:
			return
		case msg := <-wc.send:
			_ = wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wc.conn.WriteJSON(msg); err != nil {
				h.drop(wc)
				return
			}
		}
	}
}

// readLoop only watches for the client closing; inbound frames are ignored.
func (h *Hub) readLoop(wc *wsConn) {
	defer h.drop(wc)
	for {
		if _, _, err := wc.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(wc *wsConn) {
	h.mu.Lock()
	delete(h.conns, wc)
	h.mu.Unlock()
	wc.close()
}

// Broadcast queues a message for every connection, dropping ones whose send
// buffer is full.
func (h *Hub) Broadcast(msg WSMessage) {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for wc := range h.conns {
		conns = append(conns, wc)
	}
	h.mu.Unlock()

	for _, wc := range conns {
		select {
		case wc.send <- msg:
		default:
			h.logger.Warn("dropping slow websocket consumer")
			h.drop(wc)
		}
	}
}

// ConnCount reports active connections.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects everyone and refuses new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*wsConn, 0, len(h.conns))
	for wc := range h.conns {
		conns = append(conns, wc)
	}
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	for _, wc := range conns {
		wc.close()
	}
}
