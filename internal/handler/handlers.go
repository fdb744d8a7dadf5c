package handler

import (
	"classroom_chat/internal/chat"
	"classroom_chat/internal/config"
	"classroom_chat/internal/service"
	"classroom_chat/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Chat      *ChatHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, coordinator *chat.Coordinator, checks map[string]HealthCheck, cfg *config.Config, log logger.Logger) *Handlers {
	handlers := &Handlers{
		Health:    NewHealthHandler(checks, coordinator.Registry()),
		Chat:      NewChatHandler(services.Messages, services.Membership, cfg.Chat.HistoryPageSize, log),
		WebSocket: NewWebSocketHandler(coordinator, cfg.WebSocket, log),
	}

	log.Info("Handlers initialized")

	return handlers
}
