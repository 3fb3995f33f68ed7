package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Probes serves the liveness, readiness and startup endpoints.
type Probes struct {
	started atomic.Bool
	checks  map[string]Check
	timeout time.Duration
}

func NewProbes() *Probes {
	return &Probes{checks: make(map[string]Check), timeout: 2 * time.Second}
}

// AddCheck registers a readiness dependency. Not safe to call once serving.
func (p *Probes) AddCheck(name string, check Check) *Probes {
	p.checks[name] = check
	return p
}

// MarkStarted flips the startup probe to healthy.
func (p *Probes) MarkStarted() {
	p.started.Store(true)
}

// Register mounts the probes under /health.
func (p *Probes) Register(router fiber.Router) {
	h := router.Group("/health")
	h.Get("/live", p.Liveness)
	h.Get("/ready", p.Readiness)
	h.Get("/startup", p.Startup)
}

func (p *Probes) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness runs every registered check and fails with 503 if any does.
func (p *Probes) Readiness(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), p.timeout)
	defer cancel()

	failed := fiber.Map{}
	for name, check := range p.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"checks": failed,
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

func (p *Probes) Startup(c fiber.Ctx) error {
	if !p.started.Load() {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "starting",
		})
	}
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
