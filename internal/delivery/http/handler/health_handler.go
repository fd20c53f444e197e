package handler

import (
	"context"
	"time"

	"talent-match/internal/delivery/http/dto"
	"talent-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	cache     Pinger
	wsClients func() int
}

func NewHealthHandler(db, cache Pinger, wsClients func() int) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, wsClients: wsClients}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

// Health reports 503 when the database is down. An unreachable cache is
// reported as degraded only.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	out := dto.HealthResponse{Status: "ok", Checks: map[string]string{}}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			out.Checks["database"] = "down"
			out.Status = "down"
			status = fiber.StatusServiceUnavailable
		} else {
			out.Checks["database"] = "up"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			out.Checks["redis"] = "down"
			if out.Status == "ok" {
				out.Status = "degraded"
			}
		} else {
			out.Checks["redis"] = "up"
		}
	}
	if h.wsClients != nil {
		out.WSClients = h.wsClients()
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, response.MessageServiceUnavailable, out)
	}
	return response.Success(c, status, response.MessageOK, out)
}
