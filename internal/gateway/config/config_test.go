package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"CATALOG_BASE_URL": "http://catalog:8000",
	}})
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Port)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.PriceRange.TTL)
	assert.Equal(t, "products", cfg.PriceRange.Table)
	assert.Equal(t, 10000, cfg.SessionMax)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.False(t, cfg.Image.S3.CanUseS3())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"PORT":                "9090",
		"APP_ENV":             "production",
		"CATALOG_BASE_URL":    "http://catalog:8000",
		"CATALOG_RPS":         "2.5",
		"SESSION_MAX":         "-3",
		"SESSION_IDLE_TTL":    "0s",
		"IMAGE_TRANSFORM_URL": "https://img.example.com/rmbg",
		"IMAGE_S3_ENDPOINT":   "minio:9000",
		"IMAGE_S3_ACCESS_KEY": "key",
		"IMAGE_S3_SECRET_KEY": "secret",
		"IMAGE_S3_BUCKET":     "items",
		"IMAGE_S3_USE_SSL":    "false",
		"PRICE_RANGE_PG_DSN":  "postgres://u:p@db/stylefit",
		"PRICE_RANGE_TTL":     "30s",
	}})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, 2.5, cfg.Catalog.RPS)
	assert.Equal(t, 10000, cfg.SessionMax)
	assert.Zero(t, cfg.SessionIdle)
	assert.Equal(t, "https://img.example.com/rmbg", cfg.Image.TransformURL)
	assert.True(t, cfg.Image.S3.CanUseS3())
	assert.False(t, cfg.Image.S3.UseSSL)
	assert.Equal(t, 30*time.Second, cfg.PriceRange.TTL)
}

func TestParseRequiresCatalog(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{}})
	assert.ErrorContains(t, err, "CATALOG_BASE_URL")
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{
		"CATALOG_BASE_URL": "http://catalog:8000",
		"CATALOG_TIMEOUT":  "soon",
	}})
	assert.ErrorContains(t, err, "parse env:")
}

func TestNormalizePort(t *testing.T) {
	assert.Equal(t, ":80", normalizePort("80"))
	assert.Equal(t, ":80", normalizePort(":80"))
	assert.Equal(t, "0.0.0.0:80", normalizePort("0.0.0.0:80"))
	assert.Equal(t, ":8081", normalizePort(" "))
}
