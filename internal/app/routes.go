package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/middleware"
	"github.com/tasknest/tasknest/internal/tasks"
)

// RegisterRoutes wires every feature package onto the Echo instance. The
// API surface lives under /api/v1; health checking is at the root.
func (a *App) RegisterRoutes() {
	// Shared auth building blocks.
	tokens := auth.NewTokenManager(a.Config.Auth)
	hasher := auth.NewPasswordHasher(a.Config.Auth.BcryptCost)
	limiter := middleware.NewRateLimiter(a.Redis)

	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo, hasher, tokens)
	authHandler := auth.NewHandler(authService, a.Config.Auth)

	taskRepo := tasks.NewTaskRepository(a.DB)
	taskService := tasks.NewTaskService(taskRepo)
	taskHandler := tasks.NewHandler(taskService)

	api := a.Echo.Group("/api/v1")
	auth.RegisterRoutes(api.Group("/auth"), authHandler, limiter, a.Config.RateLimit)
	tasks.RegisterRoutes(api.Group("/tasks"), taskHandler, tokens)

	a.Echo.GET("/healthz", a.healthz)
}

// healthz reports liveness of the service and its backing stores. Returns
// 503 when either store is unreachable so orchestrators stop routing here.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
