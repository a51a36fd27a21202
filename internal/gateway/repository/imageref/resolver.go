// Package imageref turns raw catalog image references into URLs the front
// end can load: object keys are presigned against S3, and every URL can be
// routed through the background-removal transform.
package imageref

import (
	"context"
	"net/url"
	"strings"

	"stylefit/internal/catalog"
)

// Chain applies resolvers in order, feeding each the previous result.
type Chain []catalog.ImageResolver

func (c Chain) Resolve(ctx context.Context, ref string) string {
	for _, r := range c {
		if r != nil {
			ref = r.Resolve(ctx, ref)
		}
	}
	return ref
}

// TransformResolver rewrites an image URL to `{endpoint}?url=<escaped>`.
// Missing images become the placeholder; the placeholder is never transformed.
type TransformResolver struct {
	endpoint string
}

func NewTransformResolver(endpoint string) *TransformResolver {
	return &TransformResolver{endpoint: strings.TrimSpace(endpoint)}
}

func (r *TransformResolver) Resolve(_ context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == catalog.PlaceholderImage {
		return catalog.PlaceholderImage
	}
	if r == nil || r.endpoint == "" {
		return ref
	}
	return r.endpoint + "?url=" + url.QueryEscape(ref)
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(ref, "/")
}
