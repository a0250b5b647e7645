// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"coldchain-freight-api-server/internal/auth"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Maximum time allowed between messages (or pings) from the client.
	pongWait   = 60 * time.Second
	writeWait  = 10 * time.Second
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client frame types.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
)

// Server frame types.
const (
	msgSubscribed     = "subscribed"
	msgUnsubscribed   = "unsubscribed"
	msgShipmentUpdate = "shipment_update"
	msgError          = "error"
)

type clientFrame struct {
	Type       string `json:"type"`
	ShipmentID string `json:"shipmentId"`
}

type serverFrame struct {
	Type       string                 `json:"type"`
	ShipmentID string                 `json:"shipmentId,omitempty"`
	Data       *models.ShipmentUpdate `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

type WebSocketHandler struct {
	Hub    *socket.Hub[models.ShipmentUpdate]
	Tokens *auth.TokenIssuer
	Logger *slog.Logger
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) write(frame serverFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(frame)
}

// ServeWs upgrades the request and serves the subscribe protocol until the
// client disconnects. The JWT travels in ?token= because browsers cannot set
// headers on WebSocket requests.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}
	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger().Warn("websocket upgrade failed", "error", err)
		return
	}
	logger := h.logger().With("user", claims.Email)
	logger.Info("websocket client connected")

	out := &wsConn{conn: conn}
	subs := make(map[string]*socket.Subscription[models.ShipmentUpdate])
	var forwarders sync.WaitGroup

	defer func() {
		for _, sub := range subs {
			h.Hub.Unsubscribe(sub)
		}
		forwarders.Wait()
		conn.Close()
		logger.Info("websocket client disconnected")
	}()

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		out.mu.Lock()
		defer out.mu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.ShipmentID == "" {
			out.write(serverFrame{Type: msgError, Error: "expected {type, shipmentId}"})
			continue
		}

		switch frame.Type {
		case msgSubscribe:
			if _, ok := subs[frame.ShipmentID]; !ok {
				sub := h.Hub.Subscribe(frame.ShipmentID)
				subs[frame.ShipmentID] = sub
				forwarders.Add(1)
				go h.forward(out, sub, logger, &forwarders)
			}
			out.write(serverFrame{Type: msgSubscribed, ShipmentID: frame.ShipmentID})
		case msgUnsubscribe:
			if sub, ok := subs[frame.ShipmentID]; ok {
				h.Hub.Unsubscribe(sub)
				delete(subs, frame.ShipmentID)
			}
			out.write(serverFrame{Type: msgUnsubscribed, ShipmentID: frame.ShipmentID})
		default:
			out.write(serverFrame{Type: msgError, ShipmentID: frame.ShipmentID, Error: "unknown message type " + frame.Type})
		}
	}
}

// forward copies one subscription's updates to the socket until the
// subscription is closed.
func (h *WebSocketHandler) forward(out *wsConn, sub *socket.Subscription[models.ShipmentUpdate], logger *slog.Logger, wg *sync.WaitGroup) {
	defer wg.Done()
	for update := range sub.C {
		if err := out.write(serverFrame{Type: msgShipmentUpdate, ShipmentID: sub.Topic, Data: &update}); err != nil {
			logger.Debug("dropping update for closed socket", "shipment", sub.Topic, "error", err)
		}
	}
}

func (h *WebSocketHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
