// Package budget validates user price bounds against the catalog's legal
// per-category ranges. The same check drives inline feedback and the gate in
// front of the composition screen.
package budget

import (
	"fmt"
	"slices"
	"strings"

	"stylefit/internal/catalog"
)

type Field string

const (
	FieldMin   Field = "min"
	FieldMax   Field = "max"
	FieldOrder Field = "order"
)

type Issue struct {
	Category catalog.Category `json:"category"`
	Field    Field            `json:"field"`
	Message  string           `json:"message"`
}

// Issues is empty when the bounds pass.
type Issues []Issue

func (is Issues) Error() string {
	parts := make([]string, 0, len(is))
	for _, i := range is {
		parts = append(parts, fmt.Sprintf("%s.%s: %s", i.Category, i.Field, i.Message))
	}
	return "budget: " + strings.Join(parts, "; ")
}

func (is Issues) For(cat catalog.Category) Issues {
	var out Issues
	for _, i := range is {
		if i.Category == cat {
			out = append(out, i)
		}
	}
	return out
}

// Validate is pure. A category without a known range is only checked for
// min <= max. Issues come back in canonical category order, then any other
// categories sorted by name.
func Validate(bounds catalog.Bounds, ranges catalog.Ranges) Issues {
	var out Issues
	for _, cat := range order(bounds) {
		b := bounds[cat]
		if r, ok := ranges[cat]; ok {
			if b.Min != nil && *b.Min >= r.Max {
				out = append(out, Issue{cat, FieldMin, fmt.Sprintf("minimum must be below %d", r.Max)})
			}
			if b.Max != nil && *b.Max <= r.Min {
				out = append(out, Issue{cat, FieldMax, fmt.Sprintf("maximum must be above %d", r.Min)})
			}
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			out = append(out, Issue{cat, FieldOrder, "minimum must not exceed maximum"})
		}
	}
	return out
}

func order(bounds catalog.Bounds) []catalog.Category {
	out := make([]catalog.Category, 0, len(bounds))
	for _, cat := range catalog.Categories {
		if _, ok := bounds[cat]; ok {
			out = append(out, cat)
		}
	}
	var extra []catalog.Category
	for cat := range bounds {
		if !slices.Contains(catalog.Categories, cat) {
			extra = append(extra, cat)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
