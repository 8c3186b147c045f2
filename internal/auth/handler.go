package auth

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/apperror"
	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/response"
)

// Cookie names for the two token classes. Both cookies are HttpOnly so
// script running in the page can never read the tokens; this is why tokens
// are delivered via cookies rather than response bodies.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// Handler handles HTTP requests for authentication (register, login,
// refresh, logout). Handlers are thin: they bind the request, call the
// service, and render the response. No business logic lives here.
type Handler struct {
	service AuthService
	cfg     config.AuthConfig
}

// NewHandler creates a new auth handler with the given service. The auth
// config supplies the cookie lifetimes (matched to the token TTLs).
func NewHandler(service AuthService, cfg config.AuthConfig) *Handler {
	return &Handler{service: service, cfg: cfg}
}

// Register creates a new account (POST /auth/register). Does not log the
// user in; the client follows up with POST /auth/login.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		return apperror.NewValidation(msg)
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return response.JSON(c, http.StatusCreated, user)
}

// Login authenticates and starts a session (POST /auth/login). The token
// pair is delivered as HttpOnly cookies; the body carries only the user.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return apperror.NewValidation("email and password are required")
	}

	pair, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)

	return response.JSON(c, http.StatusOK, user)
}

// Refresh rotates the session (POST /auth/refresh). The refresh token is
// read from the cookie set at login, or from the body for cookie-less
// clients. New tokens are delivered as cookies again.
func (h *Handler) Refresh(c echo.Context) error {
	token := h.refreshTokenFromRequest(c)
	if token == "" {
		return apperror.NewUnauthorized("refresh token required")
	}

	pair, err := h.service.Refresh(c.Request().Context(), token)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)

	return response.JSON(c, http.StatusOK, map[string]string{
		"message": "tokens refreshed",
	})
}

// Logout revokes the session (POST /auth/logout). Succeeds even when no
// valid token was presented; the cookies are cleared regardless.
func (h *Handler) Logout(c echo.Context) error {
	token := h.refreshTokenFromRequest(c)

	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return err
	}

	h.clearTokenCookies(c)

	return response.JSON(c, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// refreshTokenFromRequest reads the refresh token from the cookie first,
// then from the JSON body.
func (h *Handler) refreshTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

// --- Cookie helpers ---

// setTokenCookies stores the token pair as HttpOnly cookies. Secure is set
// when the request arrived over TLS (directly or via the reverse proxy).
func (h *Handler) setTokenCookies(c echo.Context, pair *TokenPair) {
	secure := isSecureRequest(c)

	c.SetCookie(&http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cfg.AccessTokenTTL / time.Second),
	})
	c.SetCookie(&http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cfg.RefreshTokenTTL / time.Second),
	})
}

// clearTokenCookies removes both token cookies by setting MaxAge to -1.
func (h *Handler) clearTokenCookies(c echo.Context) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
}

// isSecureRequest reports whether the request arrived over HTTPS, either
// directly or through a TLS-terminating reverse proxy.
func isSecureRequest(c echo.Context) bool {
	req := c.Request()
	return req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https"
}

// --- Validation helpers ---

// validateRegisterRequest performs server-side validation on the
// registration payload. Returns an error message or empty string.
func validateRegisterRequest(req *RegisterRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Name) > 100 {
		return "name must be at most 100 characters"
	}
	if req.Email == "" {
		return "email is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "email is not a valid address"
	}
	if req.Password == "" {
		return "password is required"
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	// bcrypt silently ignores input beyond 72 bytes; reject instead.
	if len(req.Password) > 72 {
		return "password must be at most 72 characters"
	}
	return ""
}
