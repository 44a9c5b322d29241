package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	StripeAPIKey       string
	TeamPassword       string
	JWTSecret          string
	CORSAllowedOrigins []string
	SuccessURL         string
	CatalogCacheTTL    time.Duration
	CatalogPageLimit   int
	AccessTokenTTL     time.Duration
	LoginRateMax       int
	LoginRateWindow    time.Duration
}

// Load reads configuration from environment variables and optional .env files.
// Missing processor credentials or the team password are reported as errors so
// the entrypoint can halt with an operator-facing message before serving.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		StripeAPIKey:       strings.TrimSpace(k.String("STRIPE_API_KEY")),
		TeamPassword:       k.String("TEAM_PASSWORD"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		SuccessURL:         valueOrDefault(k.String("CHECKOUT_SUCCESS_URL"), "https://example.com/success"),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogPageLimit:   intOrDefault(k.Int("CATALOG_PAGE_LIMIT"), 50),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		LoginRateMax:       intOrDefault(k.Int("LOGIN_RATE_MAX"), 10),
		LoginRateWindow:    parseDuration(k.String("LOGIN_RATE_WINDOW"), "1m"),
	}

	if cfg.StripeAPIKey == "" {
		return nil, errors.New("STRIPE_API_KEY is required: set the payment processor secret key before starting")
	}
	if cfg.TeamPassword == "" {
		return nil, errors.New("TEAM_PASSWORD is required: set the shared team password before starting")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required: set the session token signing secret before starting")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
