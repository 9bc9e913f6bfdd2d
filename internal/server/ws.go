package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linkhoard/linkhoard/internal/service"
)

const writeTimeout = 5 * time.Second

// progressEvent is the wire format pushed to /ws/progress subscribers.
type progressEvent struct {
	Kind   string                  `json:"kind"` // "import" or "enrich"
	Import *service.ImportState    `json:"import,omitempty"`
	Enrich *service.EnrichProgress `json:"enrich,omitempty"`
}

// progressHub fans progress events out to connected WebSocket clients. A
// client that cannot keep up is disconnected rather than blocking the rest.
type progressHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan progressEvent
}

func newProgressHub(logger *slog.Logger) *progressHub {
	return &progressHub{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan progressEvent),
	}
}

func (h *progressHub) add(conn *websocket.Conn) chan progressEvent {
	ch := make(chan progressEvent, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *progressHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *progressHub) broadcast(event progressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- event:
		default:
			h.logger.Warn("dropping slow progress subscriber")
			delete(h.clients, conn)
			close(ch)
			_ = conn.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local single-user server
	},
}

// handleProgressSocket upgrades the connection and streams progress events
// until the client disconnects.
func (s *Server) handleProgressSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ch := s.hub.add(conn)
	defer s.hub.remove(conn)

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(conn)
				return
			}
		}
	}()

	for event := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
