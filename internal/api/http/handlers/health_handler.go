package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/finsupport/triage-service/internal/observability"
	"github.com/finsupport/triage-service/internal/persistence"
	"github.com/finsupport/triage-service/internal/upstream"
)

// HealthHandler serves liveness and readiness probes plus the in-process
// counter snapshot.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
	backend  *upstream.Client
	metrics  *observability.Metrics
}

// NewHealthHandler constructs handler.
func NewHealthHandler(pg *persistence.Postgres, rd *persistence.Redis, backend *upstream.Client, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{postgres: pg, redis: rd, backend: backend, metrics: metrics}
}

// Live GET /health/live always reports up while the process runs.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready GET /health/ready checks the optional backing stores. The service can
// run without either store, so a missing one reports as skipped rather than
// down; upstream reachability is advisory and never fails the probe, since
// the triage cycle already degrades safely without it.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	status := fiber.StatusOK

	if h.postgres == nil || h.postgres.Pool == nil {
		checks["postgres"] = "skipped"
	} else if err := h.postgres.Ping(c.UserContext()); err != nil {
		checks["postgres"] = "down"
		status = fiber.StatusServiceUnavailable
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis == nil || h.redis.Client == nil {
		checks["redis"] = "skipped"
	} else if err := h.redis.Ping(c.UserContext()); err != nil {
		checks["redis"] = "down"
	} else {
		checks["redis"] = "ok"
	}

	if h.backend == nil {
		checks["upstream"] = "skipped"
	} else if res := h.backend.Ping(c.UserContext()); !res.OK() {
		checks["upstream"] = res.Outcome.String()
	} else {
		checks["upstream"] = "ok"
	}

	return c.Status(status).JSON(fiber.Map{"status": "ready", "checks": checks})
}

// Counters GET /health/counters exposes the in-process counter snapshot.
func (h *HealthHandler) Counters(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
