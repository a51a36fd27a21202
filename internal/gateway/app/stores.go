package app

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	pricecache "stylefit/internal/cache/pricerange"
	"stylefit/internal/catalog"
	"stylefit/internal/checkout"
	"stylefit/internal/gateway/config"
	"stylefit/internal/gateway/repository/imageref"
	pricerepo "stylefit/internal/gateway/repository/pricerange"
)

type gatewayBackends struct {
	catalog  catalog.Gateway
	ranges   *pricecache.CachedSource
	checkout checkout.Submitter
	closers  []func() error
}

func initBackends(cfg *config.Config, logger *zap.Logger) (*gatewayBackends, error) {
	images, err := initImageResolver(cfg, logger)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.Catalog.Timeout}

	gw, err := catalog.NewHTTPGateway(catalog.HTTPConfig{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
		Burst:   cfg.Catalog.Burst,
	}, catalog.WithHTTPClient(httpClient), catalog.WithImageResolver(images), catalog.WithLogger(logger.Named("catalog")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog gateway: %w", err)
	}

	submitter, err := checkout.NewHTTPSubmitter(cfg.Catalog.BaseURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checkout submitter: %w", err)
	}

	b := &gatewayBackends{catalog: gw, checkout: submitter}
	origin, err := chooseRangeSource(cfg, gw, logger, b)
	if err != nil {
		return nil, err
	}
	b.ranges = pricecache.NewCachedSource(origin, pricecache.CacheConfig{TTL: cfg.PriceRange.TTL})
	return b, nil
}

// chooseRangeSource prefers aggregating prices straight from the product
// table; without a DSN the catalog service's own endpoint is used.
func chooseRangeSource(cfg *config.Config, fallback catalog.RangeSource, logger *zap.Logger, b *gatewayBackends) (catalog.RangeSource, error) {
	dsn := strings.TrimSpace(cfg.PriceRange.PGDSN)
	if dsn == "" {
		logger.Info("price ranges: catalog service")
		return fallback, nil
	}
	src, err := pricerepo.NewPostgresSource(dsn, cfg.PriceRange.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize price range source: %w", err)
	}
	b.closers = append(b.closers, src.Close)
	logger.Info("price ranges: postgres", zap.String("table", cfg.PriceRange.Table))
	return src, nil
}

func initImageResolver(cfg *config.Config, logger *zap.Logger) (catalog.ImageResolver, error) {
	var chain imageref.Chain
	if s3 := cfg.Image.S3; s3.CanUseS3() {
		r, err := imageref.NewS3Resolver(imageref.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			UseSSL:    s3.UseSSL,
			Expiry:    s3.URLExpiry,
		}, logger.Named("images"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize image s3 resolver: %w", err)
		}
		logger.Info("images: s3", zap.String("bucket", s3.Bucket), zap.String("endpoint", s3.Endpoint))
		chain = append(chain, r)
	}
	// Without an endpoint the transform only maps missing images to the placeholder.
	chain = append(chain, imageref.NewTransformResolver(cfg.Image.TransformURL))
	return chain, nil
}
