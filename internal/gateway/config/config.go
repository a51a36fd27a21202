package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment. A zero SessionIdle keeps sessions
// until the LRU evicts them.
type Config struct {
	Port        string        `env:"PORT" envDefault:":8081"`
	Env         string        `env:"APP_ENV" envDefault:"local"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionMax  int           `env:"SESSION_MAX" envDefault:"10000"`
	SessionIdle time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	Catalog     CatalogConfig `envPrefix:"CATALOG_"`
	PriceRange  PriceRange    `envPrefix:"PRICE_RANGE_"`
	Image       ImageConfig   `envPrefix:"IMAGE_"`
}

type CatalogConfig struct {
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
	RPS     float64       `env:"RPS" envDefault:"20"`
	Burst   int           `env:"BURST" envDefault:"40"`
}

type PriceRange struct {
	TTL   time.Duration `env:"TTL" envDefault:"5m"`
	PGDSN string        `env:"PG_DSN"`
	Table string        `env:"TABLE" envDefault:"products"`
}

type ImageConfig struct {
	TransformURL string   `env:"TRANSFORM_URL"`
	S3           S3Config `envPrefix:"S3_"`
}

type S3Config struct {
	Endpoint  string        `env:"ENDPOINT"`
	Region    string        `env:"REGION" envDefault:"us-east-1"`
	AccessKey string        `env:"ACCESS_KEY"`
	SecretKey string        `env:"SECRET_KEY"`
	Bucket    string        `env:"BUCKET"`
	UseSSL    bool          `env:"USE_SSL" envDefault:"true"`
	URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"1h"`
}

// CanUseS3 reports whether object keys can be presigned.
func (c S3Config) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Port = normalizePort(cfg.Port)
	cfg.Env = firstNonEmpty(strings.TrimSpace(cfg.Env), "local")
	if cfg.SessionMax <= 0 {
		cfg.SessionMax = 10000
	}
	if strings.TrimSpace(cfg.Catalog.BaseURL) == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL is required")
	}
	return &cfg, nil
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8081"
	}
	if strings.HasPrefix(port, ":") || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
