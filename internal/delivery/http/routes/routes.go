package routes

import (
	"skillmatch/internal/delivery/http/handler"
	"skillmatch/internal/delivery/http/middleware"
	v1 "skillmatch/internal/delivery/http/routes/v1"
	"skillmatch/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health  *handler.HealthHandler
	v1      v1.Handlers
	ws      *ws.Handler
	auth    *middleware.AuthMiddleware
	limiter *middleware.RateLimiter
}

type Options struct {
	Health  *handler.HealthHandler
	V1      v1.Handlers
	WS      *ws.Handler
	Auth    *middleware.AuthMiddleware
	Limiter *middleware.RateLimiter
}

func NewRegistry(o Options) *Registry {
	return &Registry{
		health:  o.Health,
		v1:      o.V1,
		ws:      o.WS,
		auth:    o.Auth,
		limiter: o.Limiter,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	v1.Register(app.Group("/api/v1"), r.v1, r.auth, r.limiter)
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws != nil {
		app.Get("/ws/matches", r.ws.HandleMatches)
	}
}
