package routes

import (
	"talent-match/internal/delivery/http/handler"
	"talent-match/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRegistrar is implemented by every handler that owns routes.
type RouteRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

type Registry struct {
	Health   *handler.HealthHandler
	Matching *handler.MatchingHandler
	WS       RouteRegistrar
	// Auth guards /api/v1 when set.
	Auth *middleware.AuthMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil || r == nil {
		return
	}

	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if r.WS != nil {
		r.WS.RegisterRoutes(app)
	}

	r.registerAPI(app)
}

func (r *Registry) registerAPI(app *fiber.App) {
	v1 := app.Group("/api/v1")
	if r.Auth != nil {
		v1.Use(r.Auth.Middleware())
	}
	if r.Matching != nil {
		r.Matching.RegisterRoutes(v1)
	}
}
