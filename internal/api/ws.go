// WebSocket streaming of trial progress.
package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tos-network/emission-sim/internal/runner"
	"github.com/tos-network/emission-sim/internal/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Results are public, same as the REST endpoints
	},
}

// wsClient is one progress subscriber
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) send(p runner.Progress) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(p)
}

// progressHub fans progress snapshots out to websocket subscribers
type progressHub struct {
	mu      sync.Mutex
	clients map[*wsClient]bool
}

func newProgressHub() *progressHub {
	return &progressHub{clients: make(map[*wsClient]bool)}
}

func (h *progressHub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *progressHub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// broadcast sends a snapshot to every subscriber, dropping clients
// whose connection has failed.
func (h *progressHub) broadcast(p runner.Progress) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(p); err != nil {
			h.remove(c)
		}
	}
}

func (h *progressHub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		c.conn.Close()
	}
	h.clients = make(map[*wsClient]bool)
	h.mu.Unlock()
}

// handleProgressWS upgrades the connection and subscribes it to
// progress snapshots. The current snapshot is sent immediately so late
// subscribers see the run state without waiting for the next trial.
func (s *Server) handleProgressWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.Debugf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{conn: conn}
	s.hub.add(client)

	s.mu.RLock()
	current := s.progress
	s.mu.RUnlock()
	if err := client.send(current); err != nil {
		s.hub.remove(client)
		return
	}

	// Drain the read side so close frames are processed; subscribers
	// are write-only from our point of view.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(client)
				return
			}
		}
	}()
}
