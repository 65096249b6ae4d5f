package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mikhel0k/JurBot/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jurbot")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 15*time.Minute, cfg.PendingTTL)
	require.Equal(t, 30*time.Minute, cfg.CompanyCacheTTL)
	require.Equal(t, "jwt_tokens/jwt-private.pem", cfg.JWTPrivateKeyFile)
	require.Equal(t, 600, cfg.RateLimitRPM)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.CORSAllowCredentials)

	// Development tolerates a dead SMTP server, production does not.
	require.False(t, cfg.SMTPStrictDelivery)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jurbot")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "10m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.jurbot.ru, https://jurbot.ru")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.False(t, cfg.IsDevelopment())
	require.Equal(t, "9000", cfg.HTTPPort)
	require.Equal(t, 10*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, []string{"https://app.jurbot.ru", "https://jurbot.ru"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.SMTPStrictDelivery)
}

func TestLoadStrictDeliveryOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jurbot")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SMTP_STRICT_DELIVERY", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.False(t, cfg.SMTPStrictDelivery)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jurbot")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("REDIS_DB", "several")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 0, cfg.RedisDB)
}
