package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/agricoop/magasin-service/internal/observability"
)

// MetricsHandler exposes request counters.
type MetricsHandler struct {
	metrics    *observability.Metrics
	prometheus fiber.Handler
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{
		metrics:    metrics,
		prometheus: adaptor.HTTPHandler(metrics.Handler()),
	}
}

// Snapshot GET /metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// Prometheus GET /metrics/prometheus.
func (h *MetricsHandler) Prometheus(c *fiber.Ctx) error {
	return h.prometheus(c)
}
