package session

import (
	"stylefit/internal/canvas"
	"stylefit/internal/catalog"
)

// Canvas events are only accepted on the composition screen.

func (s *Session) SetCanvasOrigin(p canvas.Point) error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Composition); err != nil {
		return err
	}
	s.canvas.SetOrigin(p)
	return nil
}

// Place drops a copy of a pooled item at a screen point. Items of a
// category that is being shuffled cannot be dragged in.
func (s *Session) Place(cat catalog.Category, itemID string, drop canvas.Point) (canvas.PlacedItem, error) {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Composition); err != nil {
		return canvas.PlacedItem{}, err
	}
	item, err := s.pools.Item(cat, itemID)
	if err != nil {
		return canvas.PlacedItem{}, err
	}
	return s.canvas.Place(item, cat, drop), nil
}

func (s *Session) BeginDrag(id uint64, pointer canvas.Point) error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Composition); err != nil {
		return err
	}
	return s.canvas.BeginDrag(id, pointer)
}

// ContinueDrag is called for every pointer move; it reports whether a drag
// was active.
func (s *Session) ContinueDrag(pointer canvas.Point) bool {
	s.lock()
	defer s.mu.Unlock()
	if s.screen != Composition {
		return false
	}
	return s.canvas.ContinueDrag(pointer)
}

// ReleaseDrag ends the drag only while id is still the item being dragged.
// It is idempotent and accepted on any screen.
func (s *Session) ReleaseDrag(id uint64) {
	s.lock()
	defer s.mu.Unlock()
	if cur, ok := s.canvas.Dragging(); ok && cur == id {
		s.canvas.EndDrag()
	}
}

func (s *Session) Rescale(id uint64, delta float64) (float64, error) {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Composition); err != nil {
		return 0, err
	}
	return s.canvas.Rescale(id, delta)
}

// Wheel applies one scale tick per wheel event.
func (s *Session) Wheel(id uint64, deltaY float64) (float64, error) {
	return s.Rescale(id, canvas.WheelDelta(deltaY))
}

func (s *Session) Remove(id uint64) error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Composition); err != nil {
		return err
	}
	if !s.canvas.Remove(id) {
		return canvas.ErrUnknownInstance
	}
	return nil
}

func (s *Session) ClearCanvas() error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Composition); err != nil {
		return err
	}
	s.canvas.Clear()
	return nil
}
