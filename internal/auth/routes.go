package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/middleware"
)

// RegisterRoutes sets up the auth endpoints on the given route group.
// All auth routes are public (no access token required) -- RequireAuth is
// exported separately for other packages to apply to their groups.
//
// Credential POSTs are rate-limited per IP to slow brute-force and
// credential stuffing; limits come from config.
func RegisterRoutes(g *echo.Group, h *Handler, rl *middleware.RateLimiter, cfg config.RateLimitConfig) {
	g.POST("/register", h.Register, rl.Limit("register", cfg.RegisterPerMinute, time.Minute))
	g.POST("/login", h.Login, rl.Limit("login", cfg.LoginPerMinute, time.Minute))
	g.POST("/refresh", h.Refresh, rl.Limit("login", cfg.LoginPerMinute, time.Minute))
	g.POST("/logout", h.Logout)
}
