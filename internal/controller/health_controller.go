package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RemoteHealthChecker pings the processing API; wired to processing.Client.
type RemoteHealthChecker interface {
	Health(ctx context.Context) (map[string]any, error)
}

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
}

type healthController struct {
	remote RemoteHealthChecker
}

func NewHealthController(remote RemoteHealthChecker) IHealthController {
	return &healthController{remote: remote}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	body := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "Requirements Intake API",
	}

	// The remote pipeline being down degrades, not fails, our own health.
	if _, err := c.remote.Health(ctx.Context()); err != nil {
		body["processing_api"] = "unreachable"
	} else {
		body["processing_api"] = "healthy"
	}

	return ctx.JSON(body)
}
