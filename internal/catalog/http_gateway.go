package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// RPS caps outbound requests per second; <= 0 disables throttling.
	RPS   float64
	Burst int
}

// StatusError reports a non-OK answer from the catalog service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("catalog: status %d", e.Code)
}

// HTTPGateway talks to the recommendation backend over plain HTTP.
type HTTPGateway struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	images  ImageResolver
	logger  *zap.Logger
}

type HTTPOption func(*HTTPGateway)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGateway) {
		if c != nil {
			g.client = c
		}
	}
}

func WithImageResolver(r ImageResolver) HTTPOption {
	return func(g *HTTPGateway) { g.images = r }
}

func WithLogger(l *zap.Logger) HTTPOption {
	return func(g *HTTPGateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewHTTPGateway(cfg HTTPConfig, opts ...HTTPOption) (*HTTPGateway, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	g := &HTTPGateway{
		base:   base,
		client: &http.Client{Timeout: timeout},
		logger: zap.NewNop(),
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *HTTPGateway) Fetch(ctx context.Context, req Request) (Result, error) {
	q := url.Values{}
	q.Set("persona", req.Persona)
	for cat, b := range req.Bounds {
		if b.Min != nil {
			q.Set("min_"+string(cat), strconv.FormatInt(*b.Min, 10))
		}
		if b.Max != nil {
			q.Set("max_"+string(cat), strconv.FormatInt(*b.Max, 10))
		}
	}
	if req.Seed != "" {
		q.Set("outfit_id", string(req.Seed))
	}
	if req.Category != "" {
		q.Set("category", string(req.Category))
	}

	body, err := g.get(ctx, "/api/products", q)
	if err != nil {
		return Result{}, err
	}
	res, err := Normalize(body)
	if err != nil {
		return Result{}, err
	}
	if g.images != nil {
		for cat, items := range res.Buckets {
			for i := range items {
				items[i].Image = g.images.Resolve(ctx, items[i].Image)
			}
			res.Buckets[cat] = items
		}
	}
	g.logger.Debug("catalog fetch",
		zap.String("persona", req.Persona),
		zap.String("category", string(req.Category)),
		zap.Int("categories", len(res.Buckets)),
	)
	return res, nil
}

func (g *HTTPGateway) PriceRanges(ctx context.Context) (Ranges, error) {
	body, err := g.get(ctx, "/api/price-ranges", nil)
	if err != nil {
		return nil, err
	}
	return NormalizeRanges(body)
}

func (g *HTTPGateway) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("catalog rate limit: %w", err)
		}
	}
	u := g.base.JoinPath(path)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("catalog request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: gjson.GetBytes(body, "error").String()}
	}
	return body, nil
}
