package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"skillmatch/internal/config"
	"skillmatch/internal/delivery/http/handler"
	"skillmatch/internal/delivery/http/middleware"
	"skillmatch/internal/delivery/http/routes"
	v1 "skillmatch/internal/delivery/http/routes/v1"
	"skillmatch/internal/ws"
)

// multipart framing on top of the file itself
const bodyLimitHeadroom = 1 << 20

type App struct {
	Fiber     *fiber.App
	Container *Container
	Hub       *ws.Hub
}

// New builds the HTTP app over an initialised container.
func New(c *Container) *App {
	cfg := c.Config

	f := fiber.New(fiber.Config{
		AppName:   cfg.App.AppName,
		BodyLimit: int(cfg.App.UploadMaxBytes) + bodyLimitHeadroom,
	})

	hub := ws.NewHub(c.Logger)

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c, hub)

	return &App{Fiber: f, Container: c, Hub: hub}
}

// Bootstrap wires the container and the HTTP app and starts the websocket
// hub. The returned cleanup stops background work and releases resources.
func Bootstrap(ctx context.Context, cfg config.Config, l *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, l)
	if err != nil {
		return nil, nil, err
	}
	a := New(c)

	runCtx, cancel := context.WithCancel(context.Background())
	go a.Hub.Run(runCtx)
	if c.Broker != nil {
		go func() {
			if err := ws.Forward(runCtx, c.Broker, a.Hub, c.Logger); err != nil {
				c.Logger.Error("match update subscription ended", zap.Error(err))
			}
		}()
	}

	cleanup := func() error {
		cancel()
		return c.Close()
	}
	return a, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, l *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(l).Middleware())
	app.Use(middleware.NewErrorMiddleware(l).Middleware())
}

func registerRoutes(app *fiber.App, c *Container, hub *ws.Hub) {
	if app == nil {
		return
	}

	cfg := c.Config

	var cachePinger handler.Pinger
	if c.Cache.Enabled() {
		cachePinger = c.Cache
	}

	reg := routes.NewRegistry(routes.Options{
		Health: handler.NewHealthHandler(c.DB, cachePinger),
		V1: v1.Handlers{
			Auth:     handler.NewAuthHandler(c.AuthUC, int64(c.JWT.AccessExpiresIn().Seconds())),
			User:     handler.NewUserHandler(c.UserUC),
			Match:    handler.NewMatchHandler(c.MatchingUC, cfg.App.UploadMaxBytes, cfg.App.PublicBaseURL),
			Skill:    handler.NewSkillHandler(c.SkillUC),
			Feedback: handler.NewFeedbackHandler(c.FeedbackUC),
		},
		WS:      ws.NewHandler(hub, c.JWT, c.Logger),
		Auth:    middleware.NewAuthMiddleware(c.JWT),
		Limiter: middleware.NewRateLimiter(cfg.RateLimit),
	})
	reg.Register(app)
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
