package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"classroom_chat/internal/chat"
	"classroom_chat/internal/config"
	"classroom_chat/pkg/logger"
)

type WebSocketHandler struct {
	coordinator *chat.Coordinator
	upgrader    websocket.Upgrader
	wsCfg       config.WebSocketConfig
	log         logger.Logger
}

func NewWebSocketHandler(coordinator *chat.Coordinator, wsCfg config.WebSocketConfig, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(wsCfg.AllowedOrigins),
		},
		wsCfg: wsCfg,
		log:   log,
	}
}

// Пустой список - любой origin
func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// credential берется из заголовка Authorization, браузеры передают его параметром token.
func credential(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return header
	}
	return c.Query("token")
}

// HandleChat: GET /ws/chat. Учетные данные проверяются до upgrade,
// при ошибке соединение не открывается и в реестр ничего не попадает.
func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	session := chat.NewSession(uuid.New())

	userID, err := h.coordinator.Authenticate(c.Request.Context(), session, credential(c))
	if err != nil {
		h.log.Debug("WebSocket authentication failed", "error", err, "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err, "user_id", userID)
		return
	}

	client := chat.NewClient(session, conn, h.wsCfg, h.log.With("user_id", userID))
	if err := h.coordinator.Serve(client); err != nil {
		h.log.Error("Failed to start chat session", "error", err, "user_id", userID)
		conn.Close()
	}
}
