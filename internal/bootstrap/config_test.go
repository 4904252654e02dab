package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "LOG_LEVEL", "APP_ENV", "CORS_ALLOWED_ORIGIN", "REDIS_ADDR",
		"REDIS_DB", "REDIS_KEY_PREFIX", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
		"PASSWORD_HASH_COST", "WS_MAX_MESSAGE_BYTES", "CLEANUP_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
	assert.Equal(t, "wb:", cfg.KeyPrefix)
	assert.False(t, cfg.UseRedis())
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 4, cfg.PasswordHashCost)
	assert.Equal(t, int64(1<<20), cfg.WSMaxMessageSize)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CLEANUP_INTERVAL", "15m")
	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.UseRedis())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 15*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, "info", cfg.LogLevel, "unknown levels fall back to info")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"REDIS_DB":           "two",
		"RATE_LIMIT_WINDOW":  "soon",
		"CLEANUP_INTERVAL":   "-1h",
		"PASSWORD_HASH_COST": "99",
		"RATE_LIMIT_MAX":     "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewAppWithConfig_NoRedis(t *testing.T) {
	cfg := &Config{
		ServerPort:        "0",
		LogLevel:          "error",
		AppEnv:            "test",
		CORSAllowedOrigin: "*",
		RateLimitMax:      100,
		RateLimitWindow:   time.Second,
		PasswordHashCost:  4,
		WSMaxMessageSize:  1 << 20,
		CleanupInterval:   time.Hour,
	}
	app, err := NewAppWithConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, app.Ticker)
	assert.Nil(t, app.WorkerServer)
	assert.Nil(t, app.RedisClient)
	assert.NotNil(t, app.HttpServer.Handler)
}
