// Package checkout freezes the composed outfit and hands it to the purchase
// service.
package checkout

import (
	"context"
	"errors"
	"math"
	"slices"

	"stylefit/internal/canvas"
	"stylefit/internal/catalog"
)

var ErrEmptySelection = errors.New("checkout: no items placed")

// Snapshot is detached from the canvas; later edits never reach it.
type Snapshot struct {
	Persona string              `json:"persona"`
	Items   []canvas.PlacedItem `json:"items"`
	Total   int64               `json:"total"`
}

func Finalize(persona string, items []canvas.PlacedItem) (Snapshot, error) {
	if len(items) == 0 {
		return Snapshot{}, ErrEmptySelection
	}
	s := Snapshot{Persona: persona, Items: slices.Clone(items)}
	for _, it := range s.Items {
		// Amounts are non-negative; saturate instead of wrapping.
		if a := it.Item.Price.Amount(); a > math.MaxInt64-s.Total {
			s.Total = math.MaxInt64
		} else {
			s.Total += a
		}
	}
	return s, nil
}

type Line struct {
	Category catalog.Category `json:"category"`
	ItemID   string           `json:"product_id"`
}

type Order struct {
	Persona string `json:"persona"`
	Items   []Line `json:"items"`
}

// Order builds the submission body. Placements without an item id or a
// category are skipped; the same item placed twice is sent twice.
func (s Snapshot) Order() Order {
	o := Order{Persona: s.Persona, Items: make([]Line, 0, len(s.Items))}
	for _, it := range s.Items {
		cat := it.Category
		if cat == "" {
			cat = it.Item.Category
		}
		if it.Item.ID == "" || cat == "" {
			continue
		}
		o.Items = append(o.Items, Line{Category: cat, ItemID: it.Item.ID})
	}
	return o
}

type Outcome int

const (
	Created Outcome = iota + 1
	// Duplicate means the outfit was already saved; callers treat it as success.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type Submitter interface {
	Submit(ctx context.Context, order Order) (Outcome, error)
}
