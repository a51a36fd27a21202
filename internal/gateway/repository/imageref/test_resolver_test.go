package imageref

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefit/internal/catalog"
)

func TestTransformResolver(t *testing.T) {
	ctx := context.Background()
	r := NewTransformResolver("https://img.example.com/remove-bg")

	assert.Equal(t, catalog.PlaceholderImage, r.Resolve(ctx, ""))
	assert.Equal(t, catalog.PlaceholderImage, r.Resolve(ctx, catalog.PlaceholderImage))
	assert.Equal(t,
		"https://img.example.com/remove-bg?url=https%3A%2F%2Fcdn.example.com%2Fa.png%3Fw%3D1",
		r.Resolve(ctx, "https://cdn.example.com/a.png?w=1"),
	)

	plain := NewTransformResolver(" ")
	assert.Equal(t, "https://cdn.example.com/a.png", plain.Resolve(ctx, "https://cdn.example.com/a.png"))
}

func TestS3ResolverPresignsKeys(t *testing.T) {
	r, err := NewS3Resolver(S3Config{
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		AccessKey: "stylefit",
		SecretKey: "stylefit-secret",
		Bucket:    "items",
	}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	signed := r.Resolve(ctx, "tops/t1.png")
	assert.True(t, strings.HasPrefix(signed, "http://localhost:9000/items/tops/t1.png?"), signed)
	assert.Contains(t, signed, "X-Amz-Signature=")
	assert.Equal(t, signed, r.Resolve(ctx, "s3://items/tops/t1.png"))

	assert.Equal(t, "https://cdn.example.com/a.png", r.Resolve(ctx, "https://cdn.example.com/a.png"))
	assert.Equal(t, "s3://other/tops/t1.png", r.Resolve(ctx, "s3://other/tops/t1.png"))
	assert.Equal(t, "", r.Resolve(ctx, ""))
}

func TestChainFeedsPresignedURLToTransform(t *testing.T) {
	s3, err := NewS3Resolver(S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "stylefit",
		SecretKey: "stylefit-secret",
		Bucket:    "items",
	}, nil)
	require.NoError(t, err)
	chain := Chain{s3, NewTransformResolver("https://img.example.com/rmbg")}

	got := chain.Resolve(context.Background(), "bottoms/b1.png")
	assert.True(t, strings.HasPrefix(got, "https://img.example.com/rmbg?url=http%3A%2F%2Flocalhost%3A9000%2Fitems%2Fbottoms%2Fb1.png"), got)
	assert.Equal(t, catalog.PlaceholderImage, chain.Resolve(context.Background(), ""))
}

func TestNewS3ResolverValidatesConfig(t *testing.T) {
	_, err := NewS3Resolver(S3Config{Endpoint: "localhost:9000", Bucket: "items"}, nil)
	assert.Error(t, err)
	_, err = NewS3Resolver(S3Config{AccessKey: "a", SecretKey: "b", Bucket: "items"}, nil)
	assert.Error(t, err)
}
