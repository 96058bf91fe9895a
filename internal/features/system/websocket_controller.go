package system

import (
	"go-permits/internal/features/notification"
	"go-permits/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebSocketController streams a recipient's notifications live. Each
// connection authenticates with a JWT passed as a query token and gets its
// own bus subscription; the stored notifications remain the source of truth
// when a connection drops.
type WebSocketController struct {
	bus    notification.EventBus
	logger *zap.Logger
}

func NewWebSocketController(bus notification.EventBus, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		bus:    bus,
		logger: logger,
	}
}

func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	token := c.Query("token")
	claims, err := utils.ValidateToken(token)
	if err != nil {
		_ = c.WriteJSON(map[string]string{"error": "unauthorized"})
		_ = c.Close()
		return
	}

	connID := uuid.NewString()
	h.logger.Info("websocket connected",
		zap.String("connectionId", connID),
		zap.String("recipient", claims.UserID))

	events := make(chan notification.Notification, 32)
	unsubscribe := h.bus.Subscribe(claims.UserID, events)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain client frames; the feed is one-way but we need the read
		// loop to observe the close handshake.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case n := <-events:
			if err := c.WriteJSON(n); err != nil {
				h.logger.Debug("websocket write failed",
					zap.String("connectionId", connID),
					zap.Error(err))
				return
			}
		case <-done:
			h.logger.Info("websocket disconnected", zap.String("connectionId", connID))
			return
		}
	}
}
