package tasks

import (
	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/auth"
)

// RegisterRoutes sets up the task endpoints on the given route group. Every
// route requires a valid access token.
func RegisterRoutes(g *echo.Group, h *Handler, tokens *auth.TokenManager) {
	g.Use(auth.RequireAuth(tokens))

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
