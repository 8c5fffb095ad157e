package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 存储层健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
	now   func() time.Time
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store, now: time.Now}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Backend is running successfully!")
}

// Health 存储不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	ts := h.now().UTC().Format(time.RFC3339Nano)
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "Store unavailable", "timestamp": ts})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "Server is running", "timestamp": ts})
}
