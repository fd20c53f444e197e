package app

import (
	"context"
	"fmt"
	"strings"

	"talent-match/internal/config"
	"talent-match/internal/delivery/http/handler"
	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/delivery/http/routes"
	"talent-match/internal/pkg/jwt"
	"talent-match/internal/scheduler"
	"talent-match/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
	Scheduler *scheduler.Scheduler
}

// New builds the HTTP application on top of an initialised container.
func New(c *Container) *App {
	cfg := c.Config
	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	registerGlobalMiddleware(f, c.Logger)

	reg := &routes.Registry{
		Health:   handler.NewHealthHandler(c.DB, c.Redis, c.Hub.ClientCount),
		Matching: handler.NewMatchingHandler(c.Matching),
		WS:       ws.NewHandler(c.Hub, c.Logger),
	}
	if cfg.JWT.AccessSecret != "" {
		reg.Auth = middleware.NewAuthMiddleware(jwt.NewHMACService(cfg.JWT.AccessSecret))
	} else {
		c.Logger.Warn("JWT_ACCESS_SECRET not set, /api/v1 is unauthenticated")
	}
	reg.Register(f)

	a := &App{Fiber: f, Container: c}
	if cfg.Scheduler.Enabled {
		a.Scheduler = scheduler.New(c.Matching, cfg.Scheduler.Spec, c.Logger)
	}
	return a
}

// Bootstrap wires the container and the HTTP app, optionally migrates the
// schema, and starts the background loops. The returned cleanup stops them and releases
// connections.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func(context.Context) error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.App.AutoMigrate {
		applied, err := c.Migrate(ctx)
		if err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		c.Logger.Info("migrations applied", zap.Int64s("versions", applied))
	}
	a := New(c)

	runCtx, cancel := context.WithCancel(ctx)
	go c.Hub.Run(runCtx)
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(runCtx); err != nil {
			cancel()
			_ = c.Close()
			return nil, nil, err
		}
	}

	cleanup := func(shutdownCtx context.Context) error {
		if a.Scheduler != nil {
			a.Scheduler.Stop(shutdownCtx)
		}
		cancel()
		return c.Close()
	}
	return a, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}
	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
