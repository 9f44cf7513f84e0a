package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/config"
)

type HealthHandler struct {
	environment string
	storage     string
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		environment: cfg.Environment,
		storage:     cfg.Storage.Driver,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "messenger",
	})
}

// ServerInfo reports deployment details clients use to pick endpoints.
func (h *HealthHandler) ServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"environment":   h.environment,
		"storage":       h.storage,
		"api_base":      "/api/v1",
		"subscriptions": "/ws/subscriptions",
	})
}
