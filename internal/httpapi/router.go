package httpapi

import (
	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the API under /v1. /health and /metrics are never authenticated.
func NewRouter(h *Handler, cfg config.HTTPConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogging(), gin.Recovery(), Metrics())

	r.GET("/health", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	if cfg.JWTSecret != "" {
		v1.Use(JWTAuth(cfg.JWTSecret, cfg.JWTIssuer))
	}
	h.Register(v1)
	return r
}
