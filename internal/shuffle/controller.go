// Package shuffle owns the per-category drag-source pools and re-rolls them
// one category at a time.
package shuffle

import (
	"errors"
	"slices"

	"stylefit/internal/catalog"
)

var (
	ErrLoading         = errors.New("shuffle: category is loading")
	ErrUnknownCategory = errors.New("shuffle: unknown category")
	ErrUnknownItem     = errors.New("shuffle: unknown item")
)

// Ticket identifies one in-flight shuffle. Only the newest ticket for a
// category, issued by the same controller, may apply its result.
type Ticket struct {
	Category catalog.Category
	seq      uint64
	owner    *Controller
}

// Controller is not safe for concurrent use; the owning session serializes
// calls and performs the remote fetch between Begin and Complete.
type Controller struct {
	order   []catalog.Category
	buckets catalog.Buckets
	loading map[catalog.Category]bool
	seq     map[catalog.Category]uint64
}

// New takes ownership of a copy of the initial buckets. Every canonical
// category is known even when the catalog returned nothing for it.
func New(initial catalog.Buckets) *Controller {
	c := &Controller{
		buckets: initial.Clone(),
		loading: make(map[catalog.Category]bool),
		seq:     make(map[catalog.Category]uint64),
	}
	for _, cat := range catalog.Categories {
		c.order = append(c.order, cat)
		if _, ok := c.buckets[cat]; !ok {
			c.buckets[cat] = nil
		}
	}
	extra := make([]catalog.Category, 0)
	for cat := range c.buckets {
		if !slices.Contains(c.order, cat) {
			extra = append(extra, cat)
		}
	}
	slices.Sort(extra)
	c.order = append(c.order, extra...)
	return c
}

func (c *Controller) Categories() []catalog.Category {
	return slices.Clone(c.order)
}

func (c *Controller) known(cat catalog.Category) bool {
	_, ok := c.buckets[cat]
	return ok
}

// Begin marks only this category as loading.
func (c *Controller) Begin(cat catalog.Category) (Ticket, error) {
	if !c.known(cat) {
		return Ticket{}, ErrUnknownCategory
	}
	if c.loading[cat] {
		return Ticket{}, ErrLoading
	}
	c.seq[cat]++
	c.loading[cat] = true
	return Ticket{Category: cat, seq: c.seq[cat], owner: c}, nil
}

func (c *Controller) current(t Ticket) bool {
	return t.owner == c && c.loading[t.Category] && c.seq[t.Category] == t.seq
}

// Complete replaces the ticket's bucket wholesale. It reports false for a
// stale ticket, in which case nothing changes.
func (c *Controller) Complete(t Ticket, items []catalog.Item) bool {
	if !c.current(t) {
		return false
	}
	c.buckets[t.Category] = slices.Clone(items)
	c.loading[t.Category] = false
	return true
}

// Fail clears the loading flag and keeps the previous bucket.
func (c *Controller) Fail(t Ticket) bool {
	if !c.current(t) {
		return false
	}
	c.loading[t.Category] = false
	return true
}

// Abort invalidates every outstanding ticket and clears the loading flags,
// leaving the buckets as they were.
func (c *Controller) Abort() {
	for cat, loading := range c.loading {
		if loading {
			c.seq[cat]++
			c.loading[cat] = false
		}
	}
}

func (c *Controller) Loading(cat catalog.Category) bool {
	return c.loading[cat]
}

func (c *Controller) LoadingSet() map[catalog.Category]bool {
	out := make(map[catalog.Category]bool, len(c.loading))
	for k, v := range c.loading {
		if v {
			out[k] = true
		}
	}
	return out
}

// Bucket returns a copy of the category's pool. A loading bucket is not a
// valid drag source.
func (c *Controller) Bucket(cat catalog.Category) ([]catalog.Item, error) {
	if !c.known(cat) {
		return nil, ErrUnknownCategory
	}
	if c.loading[cat] {
		return nil, ErrLoading
	}
	return slices.Clone(c.buckets[cat]), nil
}

func (c *Controller) Item(cat catalog.Category, id string) (catalog.Item, error) {
	items, err := c.Bucket(cat)
	if err != nil {
		return catalog.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return catalog.Item{}, ErrUnknownItem
}

// Buckets returns a copy of every pool, loading or not, for display.
func (c *Controller) Buckets() catalog.Buckets {
	return c.buckets.Clone()
}
