package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/apperror"
)

// contextKeyUserID is the Echo context key holding the authenticated user's
// ID. Only the ID is attached -- downstream handlers need nothing more for
// ownership checks, and the raw claims stay inside this package.
const contextKeyUserID = "auth_user_id"

// RequireAuth returns middleware that verifies the access token and injects
// the caller's user ID into the request context. The credential is read from
// the Authorization header (Bearer scheme) first, then from the access token
// cookie set at login.
//
// Every failure mode -- missing, malformed, expired, bad signature -- yields
// an explicit 401 through the central error handler. Whether the token was
// expired or invalid is not surfaced here; that distinction only matters to
// the refresh flow.
func RequireAuth(tokens *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential := extractAccessToken(c)
			if credential == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			claims, err := tokens.VerifyAccessToken(credential)
			if err != nil {
				return apperror.NewUnauthorized("invalid or expired token")
			}

			c.Set(contextKeyUserID, claims.UserID)

			return next(c)
		}
	}
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated (middleware not
// applied).
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// extractAccessToken pulls the bearer credential from the request: the
// Authorization header when present, otherwise the login cookie.
func extractAccessToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token != header {
			return strings.TrimSpace(token)
		}
		// An Authorization header without the Bearer scheme is malformed;
		// don't fall through to the cookie and mask the client's mistake.
		return ""
	}

	cookie, err := c.Cookie(accessTokenCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
