package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefit/internal/catalog"
)

func p(v int64) *int64 { return &v }

var ranges = catalog.Ranges{
	catalog.Top:    {Min: 10000, Max: 90000},
	catalog.Bottom: {Min: 20000, Max: 120000},
}

func TestValidateAcceptsInRangeBounds(t *testing.T) {
	issues := Validate(catalog.Bounds{
		catalog.Top:    {Min: p(10000), Max: p(50000)},
		catalog.Bottom: {Max: p(20001)},
	}, ranges)
	assert.Empty(t, issues)
}

func TestValidateRangeEdges(t *testing.T) {
	cases := []struct {
		name  string
		bound catalog.Bound
		want  []Field
	}{
		{"min at range max", catalog.Bound{Min: p(90000)}, []Field{FieldMin}},
		{"max at range min", catalog.Bound{Max: p(10000)}, []Field{FieldMax}},
		{"min above max", catalog.Bound{Min: p(50000), Max: p(40000)}, []Field{FieldOrder}},
		{"min equals max", catalog.Bound{Min: p(40000), Max: p(40000)}, nil},
		{"everything wrong", catalog.Bound{Min: p(95000), Max: p(5000)}, []Field{FieldMin, FieldMax, FieldOrder}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issues := Validate(catalog.Bounds{catalog.Top: tc.bound}, ranges)
			var got []Field
			for _, i := range issues {
				assert.Equal(t, catalog.Top, i.Category)
				got = append(got, i.Field)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateUnknownRangeOnlyChecksOrder(t *testing.T) {
	issues := Validate(catalog.Bounds{
		catalog.Shoes: {Min: p(1_000_000)},
		catalog.Outer: {Min: p(3), Max: p(2)},
	}, ranges)
	require.Len(t, issues, 1)
	assert.Equal(t, catalog.Outer, issues[0].Category)
	assert.Equal(t, FieldOrder, issues[0].Field)

	assert.Empty(t, Validate(catalog.Bounds{catalog.Top: {Min: p(999999)}}, nil))
}

func TestIssuesOrderAndFilter(t *testing.T) {
	issues := Validate(catalog.Bounds{
		catalog.Bottom: {Min: p(500000)},
		catalog.Top:    {Max: p(1)},
	}, ranges)
	require.Len(t, issues, 2)
	assert.Equal(t, catalog.Top, issues[0].Category)
	assert.Equal(t, catalog.Bottom, issues[1].Category)

	assert.Len(t, issues.For(catalog.Bottom), 1)
	assert.Empty(t, issues.For(catalog.Shoes))
	assert.Contains(t, issues.Error(), "top.max")
}
