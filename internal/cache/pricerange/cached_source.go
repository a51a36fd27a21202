package pricerange

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"

	"stylefit/internal/catalog"
)

type CacheConfig struct {
	TTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 5 * time.Minute}
}

type MetricsSnapshot struct {
	Hits          uint64
	Misses        uint64
	OriginReads   uint64
	OriginReadErr uint64
}

type Metrics struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	originReads   atomic.Uint64
	originReadErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		OriginReads:   m.originReads.Load(),
		OriginReadErr: m.originReadErr.Load(),
	}
}

// rangesKey is the only key: price ranges take no parameters.
const rangesKey = "ranges"

// CachedSource keeps the legal price ranges for a while so that every budget
// screen does not hit the origin. Failures are not cached.
type CachedSource struct {
	origin  catalog.RangeSource
	cache   *expirable.LRU[string, catalog.Ranges]
	metrics Metrics
}

func NewCachedSource(origin catalog.RangeSource, cfg CacheConfig) *CachedSource {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig().TTL
	}
	return &CachedSource{
		origin: origin,
		cache:  expirable.NewLRU[string, catalog.Ranges](1, nil, cfg.TTL),
	}
}

func (s *CachedSource) PriceRanges(ctx context.Context) (catalog.Ranges, error) {
	if cached, ok := s.cache.Get(rangesKey); ok {
		s.metrics.hits.Add(1)
		return maps.Clone(cached), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	ranges, err := s.origin.PriceRanges(ctx)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	copied := maps.Clone(ranges)
	s.cache.Add(rangesKey, copied)
	return maps.Clone(copied), nil
}

func (s *CachedSource) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

// Collectors exposes the counters above for a prometheus registry.
func (s *CachedSource) Collectors() []prometheus.Collector {
	counter := func(name, help string, read func(MetricsSnapshot) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "stylefit",
			Subsystem: "price_range_cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read(s.Metrics())) })
	}
	return []prometheus.Collector{
		counter("hits_total", "Price range reads served from the cache.", func(m MetricsSnapshot) uint64 { return m.Hits }),
		counter("misses_total", "Price range reads that missed the cache.", func(m MetricsSnapshot) uint64 { return m.Misses }),
		counter("origin_reads_total", "Reads forwarded to the price range origin.", func(m MetricsSnapshot) uint64 { return m.OriginReads }),
		counter("origin_errors_total", "Failed reads from the price range origin.", func(m MetricsSnapshot) uint64 { return m.OriginReadErr }),
	}
}
