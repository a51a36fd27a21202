package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrMalformedResponse = errors.New("catalog: malformed response")

// Normalize converts a products payload into canonical Buckets. The service
// answers either with {"items": {category: [...]}} or with a flat list of
// items tagged by category; callers never see the difference.
func Normalize(body []byte) (Result, error) {
	if !gjson.ValidBytes(body) {
		return Result{}, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)

	items := root
	if root.IsObject() {
		items = root.Get("items")
		if !items.Exists() {
			if msg := root.Get("error"); msg.Exists() {
				return Result{}, fmt.Errorf("catalog: %s", msg.String())
			}
			return Result{}, fmt.Errorf("%w: items missing", ErrMalformedResponse)
		}
	}

	res := Result{Buckets: Buckets{}}
	if seed := root.Get("current_outfit_id"); root.IsObject() && seed.Exists() && seed.Type != gjson.Null {
		res.Seed = Seed(seed.String())
	}

	switch {
	case items.IsObject():
		items.ForEach(func(key, value gjson.Result) bool {
			cat, ok := ParseCategory(key.String())
			if !ok {
				cat = Category(strings.ToLower(strings.TrimSpace(key.String())))
			}
			bucket := res.Buckets[cat]
			value.ForEach(func(_, raw gjson.Result) bool {
				bucket = append(bucket, parseItem(raw, cat))
				return true
			})
			res.Buckets[cat] = bucket
			return true
		})
	case items.IsArray():
		items.ForEach(func(_, raw gjson.Result) bool {
			cat, ok := ParseCategory(raw.Get("category").String())
			if !ok {
				return true
			}
			res.Buckets[cat] = append(res.Buckets[cat], parseItem(raw, cat))
			return true
		})
	default:
		return Result{}, fmt.Errorf("%w: items is %s", ErrMalformedResponse, items.Type)
	}
	return res, nil
}

func parseItem(raw gjson.Result, cat Category) Item {
	it := Item{
		ID:       firstString(raw, "product_id", "id"),
		Category: cat,
		Name:     firstString(raw, "product_name", "name"),
		Image:    firstString(raw, "img_url", "image"),
	}
	switch p := raw.Get("price"); p.Type {
	case gjson.Number:
		it.Price = Price(p.Raw)
	case gjson.String:
		it.Price = Price(p.Str)
	}
	if it.Image == "" {
		it.Image = PlaceholderImage
	}
	return it
}

func firstString(raw gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := raw.Get(p); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// NormalizeRanges parses a price-range payload: {category: {min, max}}.
func NormalizeRanges(body []byte) (Ranges, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: ranges is %s", ErrMalformedResponse, root.Type)
	}
	if msg := root.Get("error"); msg.Exists() {
		return nil, fmt.Errorf("catalog: %s", msg.String())
	}
	out := Ranges{}
	root.ForEach(func(key, value gjson.Result) bool {
		cat, ok := ParseCategory(key.String())
		if !ok || !value.IsObject() {
			return true
		}
		out[cat] = Range{Min: value.Get("min").Int(), Max: value.Get("max").Int()}
		return true
	})
	return out, nil
}
