package imageref

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Expiry is the lifetime of presigned URLs.
	Expiry time.Duration
}

// S3Resolver presigns object keys (`tops/123.png` or `s3://bucket/tops/123.png`)
// for GET. References that already are URLs pass through unchanged.
type S3Resolver struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	urls   *expirable.LRU[string, string]
	logger *zap.Logger
}

func NewS3Resolver(cfg S3Config, logger *zap.Logger) (*S3Resolver, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	// Cached URLs expire well before the signature does.
	return &S3Resolver{
		client: client,
		bucket: bucket,
		expiry: expiry,
		urls:   expirable.NewLRU[string, string](4096, nil, expiry/2),
		logger: logger,
	}, nil
}

func (r *S3Resolver) objectKey(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || isURL(ref) {
		return "", false
	}
	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket != r.bucket {
			return "", false
		}
		ref = key
	}
	key := strings.TrimLeft(ref, "/")
	return key, key != ""
}

func (r *S3Resolver) Resolve(ctx context.Context, ref string) string {
	key, ok := r.objectKey(ref)
	if !ok {
		return ref
	}
	if cached, ok := r.urls.Get(key); ok {
		return cached
	}
	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, r.expiry, nil)
	if err != nil {
		r.logger.Warn("presign image", zap.String("key", key), zap.Error(err))
		return ref
	}
	signed := u.String()
	r.urls.Add(key, signed)
	return signed
}
