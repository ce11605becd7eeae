package order

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/logging"
	"ecoshop_back_end/internal/middleware"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// LiveOrders - GET /orders/me/live, diffuse les changements de statut des commandes de l'appelant en WebSocket.
func (h *Handler) LiveOrders(c *gin.Context) {
	user := middleware.CurrentUser(c)
	logger := logging.FromContext(c.Request.Context())

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := h.events.Subscribe(ctx, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Les lectures servent seulement à détecter la déconnexion du client.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(gin.H{"type": "connected"}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(gin.H{"type": "order_status", "event": ev}); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
