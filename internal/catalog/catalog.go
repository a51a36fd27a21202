// Package catalog defines the contract with the remote catalog service:
// candidate items per category, price ranges and the outfit seed that keeps
// re-rolls within one coherent outfit.
package catalog

import (
	"context"
	"slices"
	"strings"
)

type Category string

const (
	Outer     Category = "outer"
	Top       Category = "top"
	Bottom    Category = "bottom"
	Shoes     Category = "shoes"
	Accessory Category = "acc"
)

// Categories is the canonical display order.
var Categories = []Category{Outer, Top, Bottom, Shoes, Accessory}

var categoryAliases = map[string]Category{
	"outer":     Outer,
	"top":       Top,
	"bottom":    Bottom,
	"pants":     Bottom,
	"shoes":     Shoes,
	"acc":       Accessory,
	"accessory": Accessory,
	"아우터":       Outer,
	"상의":        Top,
	"바지":        Bottom,
	"하의":        Bottom,
	"신발":        Shoes,
	"액세서리":      Accessory,
}

// ParseCategory accepts the canonical keys plus the localized labels the
// catalog service uses on flat item lists.
func ParseCategory(raw string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(raw))]
	return c, ok
}

// PlaceholderImage is used for items delivered without an image reference.
const PlaceholderImage = "/static/placeholder.png"

type Item struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Price    Price    `json:"price"`
	Image    string   `json:"image"`
}

// Seed is an opaque outfit identifier echoed on every shuffle.
type Seed string

// Buckets holds the drag-source pool, keyed by category.
type Buckets map[Category][]Item

func (b Buckets) Clone() Buckets {
	out := make(Buckets, len(b))
	for k, v := range b {
		out[k] = slices.Clone(v)
	}
	return out
}

type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type Ranges map[Category]Range

// Bound is a user-entered price filter; nil means "not set".
type Bound struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

func (b Bound) IsZero() bool { return b.Min == nil && b.Max == nil }

func (b Bound) Clone() Bound { return Bound{Min: clonePtr(b.Min), Max: clonePtr(b.Max)} }

type Bounds map[Category]Bound

func (b Bounds) Clone() Bounds {
	out := make(Bounds, len(b))
	for k, v := range b {
		out[k] = v.Clone()
	}
	return out
}

func clonePtr(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

type Request struct {
	Persona string
	Bounds  Bounds
	Seed    Seed
	// Category scopes the request to a single bucket (shuffle); empty means all.
	Category Category
}

type Result struct {
	Seed    Seed
	Buckets Buckets
}

type Gateway interface {
	Fetch(ctx context.Context, req Request) (Result, error)
}

type RangeSource interface {
	PriceRanges(ctx context.Context) (Ranges, error)
}

// ImageResolver turns a raw image reference into something a browser can load.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}
