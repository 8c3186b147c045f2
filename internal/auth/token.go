package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tasknest/tasknest/internal/config"
)

var (
	// ErrTokenExpired is returned when a token's signature is valid but its
	// expiry has passed. Callers react differently to this than to garbage
	// input (e.g., the refresh flow tells the client to log in again).
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned for every other verification failure:
	// malformed token, wrong signature, wrong signing method.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the JWT payload carried by both token classes.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the two token classes. Access and refresh
// tokens use independent secrets and lifetimes, so compromise of one secret
// cannot forge tokens of the other class.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager creates a token manager from the auth configuration.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// IssueAccessToken signs a short-lived access token for the user.
func (m *TokenManager) IssueAccessToken(userID, email string) (string, error) {
	return m.sign(userID, email, m.accessSecret, m.accessTTL)
}

// IssueRefreshToken signs a refresh token for the user. The caller is
// responsible for persisting it on the user row; a refresh token that does
// not match the stored copy is rejected even with a valid signature.
func (m *TokenManager) IssueRefreshToken(userID, email string) (string, error) {
	return m.sign(userID, email, m.refreshSecret, m.refreshTTL)
}

// VerifyAccessToken validates an access token and returns its claims.
func (m *TokenManager) VerifyAccessToken(token string) (*Claims, error) {
	return m.verify(token, m.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (m *TokenManager) VerifyRefreshToken(token string) (*Claims, error) {
	return m.verify(token, m.refreshSecret)
}

// sign builds and signs an HS256 token with the given secret and lifetime.
func (m *TokenManager) sign(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verify parses and validates a token against the given secret. Fails
// closed: any parse or validation failure maps to ErrTokenExpired or
// ErrTokenInvalid, never to implicit acceptance.
func (m *TokenManager) verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		// Reject any signing method other than HMAC. Without this check a
		// forged token could claim alg=none or an asymmetric method.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
