package middleware

import (
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/apperror"
)

// Recovery returns middleware that recovers from panics, logs the stack
// trace, and surfaces a 500 through the central error handler. This
// prevents a single panicking handler from crashing the entire server.
func Recovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				if r := recover(); r != nil {
					// Log the panic with full stack trace for debugging.
					stack := debug.Stack()
					slog.Error("panic recovered",
						slog.Any("panic", r),
						slog.String("stack", string(stack)),
						slog.String("method", c.Request().Method),
						slog.String("path", c.Request().URL.Path),
					)

					// Hand a generic internal error to the error handler so the
					// client gets the standard error envelope.
					err, ok := r.(error)
					if !ok {
						err = errors.New("panic in handler")
					}
					returnErr = apperror.NewInternal(err)
				}
			}()

			return next(c)
		}
	}
}
