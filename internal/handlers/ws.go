package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub broadcasts refresh events to connected dashboard clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	logger  *zap.Logger
}

var dashboardHub = &Hub{clients: make(map[*websocket.Conn]bool), logger: zap.NewNop()}

// DashboardHub returns the shared hub so the pipeline can push refreshes.
func DashboardHub() *Hub {
	return dashboardHub
}

func SetHubLogger(logger *zap.Logger) {
	dashboardHub.logger = logger
}

// Refresh tells every connected client to re-fetch dashboard data.
func (h *Hub) Refresh(event string) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			continue
		}

		err := conn.WriteJSON(map[string]string{
			"type":  "refresh",
			"event": event,
		})

		if err != nil {
			h.logger.Debug("broadcast failed, dropping client", zap.Error(err))
			h.remove(conn)
			conn.Close()
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

type pingWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// keepAlive pings the client until the connection handler signals done.
func keepAlive(conn pingWriter, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func WebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		dashboardHub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	dashboardHub.add(conn)

	done := make(chan struct{})
	defer func() {
		close(done)
		dashboardHub.remove(conn)
		conn.Close()
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := conn.WriteJSON(map[string]string{"type": "connected"}); err != nil {
		return
	}

	go keepAlive(conn, pingPeriod, done)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				dashboardHub.logger.Debug("websocket closed", zap.Error(err))
			}
			break
		}
	}
}
