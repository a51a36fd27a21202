// Package canvas keeps the outfit composition surface: placed item copies,
// their position, scale and stacking order, and pointer-driven dragging.
package canvas

import (
	"errors"
	"math"
	"sort"

	"stylefit/internal/catalog"
)

const (
	InitialScale = 0.8
	MinScale     = 0.2
	MaxScale     = 3.0
	WheelStep    = 0.1
)

var ErrUnknownInstance = errors.New("canvas: unknown instance")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// PlacedItem is an independent copy of a catalog item; it never aliases the
// bucket it was dragged from.
type PlacedItem struct {
	InstanceID uint64           `json:"instanceId"`
	Item       catalog.Item     `json:"item"`
	Category   catalog.Category `json:"category"`
	Position   Point            `json:"position"`
	Scale      float64          `json:"scale"`
	Stack      uint64           `json:"stack"`
}

type drag struct {
	item   *PlacedItem
	offset Point
}

// Canvas is not safe for concurrent use; the owning session serializes calls.
type Canvas struct {
	origin       Point
	items        map[uint64]*PlacedItem
	nextInstance uint64
	topStack     uint64
	active       *drag
}

func New() *Canvas {
	return &Canvas{items: make(map[uint64]*PlacedItem)}
}

// SetOrigin records the canvas' current screen origin. Pointer coordinates
// passed to the canvas are screen coordinates.
func (c *Canvas) SetOrigin(p Point) { c.origin = p }

func (c *Canvas) Origin() Point { return c.origin }

func (c *Canvas) local(screen Point) Point { return screen.Sub(c.origin) }

func (c *Canvas) promote() uint64 {
	c.topStack++
	return c.topStack
}

func (c *Canvas) Place(item catalog.Item, category catalog.Category, drop Point) PlacedItem {
	c.nextInstance++
	p := &PlacedItem{
		InstanceID: c.nextInstance,
		Item:       item,
		Category:   category,
		Position:   c.local(drop),
		Scale:      InitialScale,
		Stack:      c.promote(),
	}
	c.items[p.InstanceID] = p
	return *p
}

// BeginDrag brings the item to the front and remembers where it was grabbed.
// Starting a drag replaces any drag in progress.
func (c *Canvas) BeginDrag(id uint64, pointer Point) error {
	p, ok := c.items[id]
	if !ok {
		return ErrUnknownInstance
	}
	p.Stack = c.promote()
	c.active = &drag{item: p, offset: c.local(pointer).Sub(p.Position)}
	return nil
}

// ContinueDrag moves the dragged item; it reports false when no drag is active.
func (c *Canvas) ContinueDrag(pointer Point) bool {
	if c.active == nil {
		return false
	}
	c.active.item.Position = c.local(pointer).Sub(c.active.offset)
	return true
}

// EndDrag also serves pointer-leave.
func (c *Canvas) EndDrag() { c.active = nil }

func (c *Canvas) Dragging() (uint64, bool) {
	if c.active == nil {
		return 0, false
	}
	return c.active.item.InstanceID, true
}

// Rescale adds delta to the item's scale, saturating at the bounds.
func (c *Canvas) Rescale(id uint64, delta float64) (float64, error) {
	p, ok := c.items[id]
	if !ok {
		return 0, ErrUnknownInstance
	}
	p.Scale = clampScale(p.Scale + delta)
	return p.Scale, nil
}

// WheelDelta maps a wheel event to one scale tick: scrolling down shrinks.
func WheelDelta(deltaY float64) float64 {
	if deltaY > 0 {
		return -WheelStep
	}
	return WheelStep
}

func clampScale(v float64) float64 {
	if math.IsNaN(v) {
		return MinScale
	}
	// Round away float drift so repeated ticks land exactly on the bounds.
	v = math.Round(v*1e6) / 1e6
	return math.Min(MaxScale, math.Max(MinScale, v))
}

func (c *Canvas) Remove(id uint64) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	if c.active != nil && c.active.item.InstanceID == id {
		c.active = nil
	}
	delete(c.items, id)
	return true
}

// Clear drops every item. The stack counter keeps counting.
func (c *Canvas) Clear() {
	c.items = make(map[uint64]*PlacedItem)
	c.active = nil
}

func (c *Canvas) Len() int { return len(c.items) }

func (c *Canvas) Get(id uint64) (PlacedItem, bool) {
	p, ok := c.items[id]
	if !ok {
		return PlacedItem{}, false
	}
	return *p, true
}

// Items returns copies in render order, bottom first.
func (c *Canvas) Items() []PlacedItem {
	out := make([]PlacedItem, 0, len(c.items))
	for _, p := range c.items {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stack < out[j].Stack })
	return out
}
