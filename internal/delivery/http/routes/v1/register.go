package v1

import (
	"skillmatch/internal/delivery/http/handler"
	"skillmatch/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Match    *handler.MatchHandler
	Skill    *handler.SkillHandler
	Feedback *handler.FeedbackHandler
}

// Register mounts the v1 API. Auth endpoints are limited per IP, everything
// behind the auth middleware per user.
func Register(r fiber.Router, h Handlers, authMw *middleware.AuthMiddleware, limiter *middleware.RateLimiter) {
	if r == nil {
		return
	}

	if h.Skill != nil {
		h.Skill.RegisterRoutes(r)
	}
	if h.Auth != nil {
		h.Auth.RegisterRoutes(r.Group("/auth", limiter.Middleware()))
	}

	if authMw == nil {
		return
	}
	protected := r.Group("", authMw.Middleware(), limiter.Middleware())

	if h.User != nil {
		h.User.RegisterRoutes(protected.Group("/users"))
	}
	if h.Match != nil {
		h.Match.RegisterRoutes(protected.Group("/matches"))
	}
	if h.Feedback != nil {
		h.Feedback.RegisterRoutes(protected)
	}
}
