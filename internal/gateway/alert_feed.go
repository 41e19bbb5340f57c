package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var wsTracer = otel.Tracer("alert-feed")

const (
	feedBuffer   = 16
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

// AlertFeed fans newly created alerts out to connected subscribers.
// Slow subscribers miss events rather than blocking publishers.
type AlertFeed struct {
	mu          sync.Mutex
	subscribers map[chan *models.Alert]struct{}
	logger      *zap.Logger
	upgrader    websocket.Upgrader
}

// NewAlertFeed creates an empty feed
func NewAlertFeed(logger *zap.Logger) *AlertFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertFeed{
		subscribers: make(map[chan *models.Alert]struct{}),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer and the token check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe registers a listener. The returned cancel func must be called to release it.
func (f *AlertFeed) Subscribe() (<-chan *models.Alert, func()) {
	ch := make(chan *models.Alert, feedBuffer)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers an alert to every subscriber without blocking
func (f *AlertFeed) Publish(alert *models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers {
		select {
		case ch <- alert:
		default:
			f.logger.Warn("alert feed subscriber lagging, event dropped", zap.String("alert_id", alert.ID))
		}
	}
}

// Subscribers reports how many listeners are connected
func (f *AlertFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// StreamAlerts godoc
// @Summary Live alert feed
// @Description WebSocket stream of newly raised SOS alerts. Browsers pass the JWT in the token query parameter.
// @Tags alerts
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/alerts [get]
func (h *Handler) StreamAlerts(c *gin.Context) {
	ctx, span := wsTracer.Start(c.Request.Context(), "alert_feed.stream")
	defer span.End()

	userID, role := currentUser(c)
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("user.role", role))

	conn, err := h.feed.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe()
	defer cancel()
	h.logger.Info("alert feed subscriber connected", zap.String("user_id", userID))

	// Client messages are ignored; reading drives pong handling and close detection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			h.logger.Info("alert feed subscriber disconnected", zap.String("user_id", userID))
			return
		case alert, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(gin.H{"type": "alert", "data": alert}); err != nil {
				span.RecordError(err)
				h.logger.Warn("alert feed write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
