// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL, used for the CORS allowlist.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// CORSOrigins is the list of origins allowed to call the API from a
	// browser. Defaults to BaseURL.
	CORSOrigins []string

	// TrustedProxies lists CIDRs of reverse proxies whose forwarding
	// headers (X-Forwarded-For, X-Real-IP) are trusted.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds token and password-hashing settings.
	Auth AuthConfig

	// RateLimit holds per-IP limits for the auth endpoints.
	RateLimit RateLimitConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "tasknest").
	User string

	// Password is the MariaDB password (default: "tasknest").
	Password string

	// Name is the database name (default: "tasknest").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds token signing and password hashing settings. Access and
// refresh tokens are signed with independent secrets so compromise of one
// cannot forge the other class.
type AuthConfig struct {
	// AccessSecret signs short-lived access tokens (32+ bytes in production).
	AccessSecret string

	// RefreshSecret signs refresh tokens. Must differ from AccessSecret.
	RefreshSecret string

	// AccessTokenTTL is the access token lifetime (default: 1h).
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the refresh token lifetime (default: 168h / 7 days).
	RefreshTokenTTL time.Duration

	// BcryptCost is the bcrypt work factor for password hashing (default: 10).
	BcryptCost int
}

// RateLimitConfig holds per-IP request limits for credential endpoints.
type RateLimitConfig struct {
	// LoginPerMinute caps POST /login and /refresh attempts per IP (default: 10).
	LoginPerMinute int

	// RegisterPerMinute caps POST /register attempts per IP (default: 5).
	RegisterPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1/8", "::1/128"}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "tasknest"),
			Password:        getEnv("DB_PASSWORD", "tasknest"),
			Name:            getEnv("DB_NAME", "tasknest"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			AccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
			RefreshSecret:   getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 168*time.Hour),
			BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		},

		RateLimit: RateLimitConfig{
			LoginPerMinute:    getEnvInt("RATE_LIMIT_LOGIN", 10),
			RegisterPerMinute: getEnvInt("RATE_LIMIT_REGISTER", 5),
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
			return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		if len(cfg.Auth.AccessSecret) < 32 || len(cfg.Auth.RefreshSecret) < 32 {
			return nil, fmt.Errorf("JWT secrets must be at least 32 characters in production")
		}
	}
	if cfg.Auth.AccessSecret != "" && cfg.Auth.AccessSecret == cfg.Auth.RefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// Provide dev-only default secrets so local dev works without .env.
	if cfg.Auth.AccessSecret == "" {
		cfg.Auth.AccessSecret = "dev-access-secret-do-not-use-in-production"
	}
	if cfg.Auth.RefreshSecret == "" {
		cfg.Auth.RefreshSecret = "dev-refresh-secret-do-not-use-in-production"
	}

	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", []string{cfg.BaseURL})

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnvDuration reads a duration env var (e.g., "168h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
