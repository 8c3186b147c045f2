// Package app assembles the HTTP application: the Echo instance, the shared
// middleware chain, the central error handler, and route registration for
// every feature package.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/apperror"
	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/middleware"
	"github.com/tasknest/tasknest/internal/response"
)

// App holds the assembled application and its shared infrastructure.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	Echo   *echo.Echo
}

// New creates the application shell: Echo configured with the middleware
// chain and the central error handler. Routes are registered separately via
// RegisterRoutes.
func New(cfg *config.Config, db *sql.DB, redisClient *redis.Client) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	middleware.TrustedProxies(e, cfg.TrustedProxies)

	// Order matters: Recovery outermost so a panic anywhere below is still
	// turned into a 500 envelope, then request logging, then headers.
	e.Use(middleware.Recovery())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	return &App{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Echo:   e,
	}
}

// errorHandler is the single place where errors become HTTP responses.
// Handlers and middleware return errors; nothing else writes an error body.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *apperror.AppError
	switch e := err.(type) {
	case *apperror.AppError:
		appErr = e
	case *echo.HTTPError:
		// Echo's own errors (404 route miss, 405, oversized body).
		msg := http.StatusText(e.Code)
		if s, ok := e.Message.(string); ok {
			msg = s
		}
		appErr = &apperror.AppError{
			Status:  e.Code,
			Code:    codeForStatus(e.Code),
			Message: msg,
		}
	default:
		appErr = apperror.NewInternal(err)
	}

	// Client errors are the client's problem; only server faults get logged
	// with the underlying cause.
	if appErr.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	}

	if writeErr := response.Error(c, appErr); writeErr != nil {
		slog.Error("writing error response", slog.Any("error", writeErr))
	}
}

// codeForStatus maps an HTTP status to the envelope's machine-readable code.
func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
