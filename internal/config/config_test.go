package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "root@tcp(127.0.0.1:3306)/quiz?charset=utf8mb4&parseTime=true&loc=UTC", cfg.DB.ConnString())
	assert.Equal(t, 7*24*time.Hour, cfg.Tokens().AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Tokens().RefreshTTL)
	assert.Equal(t, "HS256", cfg.Tokens().Algorithm)
	assert.Equal(t, "email.outbound", cfg.EmailQueue)
	assert.True(t, cfg.Cache.Caches("get"))
	assert.False(t, cfg.Cache.Caches("POST"))
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestJWTSecretRequired(t *testing.T) {
	_, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":           "s",
		"JWT_ALGORITHM":        "HS512",
		"ACCESS_TOKEN_TTL_MIN": "15",
		"DB_DRIVER":            "sqlite3",
		"DB_DSN":               ":memory:",
		"REDIS_HOST":           "cache",
		"REDIS_PORT":           "6380",
		"RATE_LIMIT_CAPACITY":  "0",
		"RATE_LIMIT_TTL":       "1s",
		"CORS_ALLOW_ORIGINS":   "https://a.example,https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Tokens().AccessTTL)
	assert.Equal(t, "HS512", cfg.Tokens().Algorithm)
	assert.Equal(t, ":memory:", cfg.DB.ConnString())
	assert.Equal(t, "cache:6380", cfg.Redis.address())
	assert.Equal(t, 1, cfg.RateLimit.Capacity)
	assert.Equal(t, 15*time.Second, cfg.RateLimit.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
}
