package handler

import (
	"log/slog"
	"net/http"

	"profile-registry/internal/middleware"
	"profile-registry/internal/websocket"
	"profile-registry/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

// WebSocketHandler upgrades notification subscribers. Viewers may connect
// anonymously; a token, when given, must be a valid regulator access token.
type WebSocketHandler struct {
	manager   *websocket.Manager
	jwtSecret string
	upgrader  ws.Upgrader
	logger    *slog.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, jwtSecret string, readBuffer, writeBuffer int, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		jwtSecret: jwtSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuffer,
			WriteBufferSize: writeBuffer,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}

	subject := ""
	if token != "" {
		claims, err := jwt.ValidateTokenOfType(token, h.jwtSecret, jwt.AccessToken)
		if err != nil {
			h.logger.Debug("websocket token rejected", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		subject = claims.RegulatorID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), subject, conn, h.manager)
	if !h.manager.Connect(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
