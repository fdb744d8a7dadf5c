package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classroom_chat/internal/chat"
)

// HealthCheck проверяет одну зависимость (Postgres, Redis).
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]HealthCheck
	registry *chat.Registry
}

func NewHealthHandler(checks map[string]HealthCheck, registry *chat.Registry) *HealthHandler {
	return &HealthHandler{
		checks:   checks,
		registry: registry,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}

	body := gin.H{
		"status":       result,
		"service":      "classroom-chat",
		"dependencies": deps,
	}
	if h.registry != nil {
		body["connections"] = h.registry.Count()
	}

	c.JSON(status, body)
}
