// Package ops exposes the operational HTTP endpoints: health and metrics.
package ops

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audio_extract_bot/pkg/logger"
)

// NewRouter mounts /healthz and /metrics on handler.
func NewRouter(handler *gin.Engine, l logger.Interface, reg *prometheus.Registry, version string) {
	handler.Use(gin.Recovery())

	handler.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	handler.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	l.Info("ops endpoints mounted: /healthz /metrics")
}
