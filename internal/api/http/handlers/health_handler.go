package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/audioclean-service/internal/observability"
	"github.com/spec-kit/audioclean-service/internal/persistence"
)

const (
	welcomeMessage = "Welcome to the AI Audio Filter API!"
	pingTimeout    = 2 * time.Second
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    persistence.Pinger
	redis       persistence.Pinger
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance. redis may be nil.
func NewHealthHandler(serviceName, version string, postgres, redis persistence.Pinger, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis, metrics: metrics}
}

// Welcome handles GET /.
func (h *HealthHandler) Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": welcomeMessage})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
		"metrics": h.metrics.Snapshot(),
	})
}

// Ready reports readiness. Postgres is required; Redis only carries events
// and is reported without failing the probe.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	body := fiber.Map{
		"backend":   "Backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status := fiber.StatusOK

	if err := h.postgres.Ping(ctx); err != nil {
		body["database"] = "Error connecting to database"
		status = fiber.StatusServiceUnavailable
	} else {
		body["database"] = "Connected"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			body["redis"] = "Unavailable"
		} else {
			body["redis"] = "Connected"
		}
	}

	return c.Status(status).JSON(body)
}
