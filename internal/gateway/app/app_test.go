package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"stylefit/internal/gateway/config"
	"stylefit/internal/gateway/repository/imageref"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:        ":0",
		Env:         "local",
		SessionMax:  4,
		SessionIdle: time.Minute,
		Catalog:     config.CatalogConfig{BaseURL: "http://127.0.0.1:9", Timeout: time.Second},
		PriceRange:  config.PriceRange{TTL: time.Minute, Table: "products"},
	}
}

func TestNewWiresCatalogBackedGateway(t *testing.T) {
	a, err := New(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Zero(t, a.store.Len())
	assert.Empty(t, a.closers)

	n, err := testutil.GatherAndCount(a.reg,
		"stylefit_price_range_cache_hits_total",
		"stylefit_price_range_cache_misses_total",
		"stylefit_price_range_cache_origin_reads_total",
		"stylefit_price_range_cache_origin_errors_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, a.Shutdown(ctx))
}

func TestShutdownStopsSweeper(t *testing.T) {
	cfg := testConfig()
	cfg.SessionIdle = 0
	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(context.Background()))

	select {
	case <-a.sweepDone:
	default:
		t.Fatal("sweeper still running after shutdown")
	}
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Second, sweepInterval(0))
	assert.Equal(t, time.Second, sweepInterval(2*time.Second))
	assert.Equal(t, 5*time.Minute, sweepInterval(20*time.Minute))
}

func TestImageResolverChain(t *testing.T) {
	cfg := testConfig()
	cfg.Image.TransformURL = "https://img.example/remove-bg"
	cfg.Image.S3 = config.S3Config{
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "products",
		URLExpiry: time.Hour,
	}

	r, err := initImageResolver(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	chain, ok := r.(imageref.Chain)
	require.True(t, ok)
	assert.Len(t, chain, 2)

	got := r.Resolve(context.Background(), "tops/1.png")
	assert.Contains(t, got, "https://img.example/remove-bg?url=")
	assert.Contains(t, got, "X-Amz-Signature")
}

func TestRangeSourceRejectsBadDSN(t *testing.T) {
	cfg := testConfig()
	cfg.PriceRange.PGDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"
	_, err := New(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
