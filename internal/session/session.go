// Package session is the navigator: one Session owns the questionnaire, the
// budget, the catalog pools, the canvas and the checkout snapshot of a single
// user and moves between screens in response to discrete events.
//
// Events are applied one at a time under the session lock. Remote calls run
// with the lock released; their results are applied only if the session is
// still in the context that issued them.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"stylefit/internal/budget"
	"stylefit/internal/canvas"
	"stylefit/internal/catalog"
	"stylefit/internal/checkout"
	"stylefit/internal/persona"
	"stylefit/internal/shuffle"
)

// Deps are the collaborators shared by every session. Ranges and Checkout
// are optional.
type Deps struct {
	Bank     *persona.Bank
	Catalog  catalog.Gateway
	Ranges   catalog.RangeSource
	Checkout checkout.Submitter
	Metrics  *Metrics
	Logger   *zap.Logger
}

type Session struct {
	id   string
	deps Deps
	log  *zap.Logger

	mu     sync.Mutex
	screen Screen
	// epoch changes on every screen change and on reset; remote results
	// carry the epoch they were issued under.
	epoch uint64

	engine  *persona.Engine
	persona persona.Label

	bounds  catalog.Bounds
	ranges  catalog.Ranges
	loading bool

	seed    catalog.Seed
	pools   *shuffle.Controller
	canvas  *canvas.Canvas
	order   *checkout.Snapshot
	paying  bool
	outcome checkout.Outcome

	notices []Notice
	touched time.Time
}

func New(id string, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Session{
		id:      id,
		deps:    deps,
		log:     deps.Logger.With(zap.String("session_id", id)),
		engine:  persona.NewEngine(deps.Bank),
		touched: time.Now(),
	}
	s.clear()
	s.screen = Landing
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// LastActive reports when the session last handled an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) lock() {
	s.mu.Lock()
	s.touched = time.Now()
}

func (s *Session) clear() {
	s.engine.Reset()
	s.persona = ""
	s.bounds = catalog.Bounds{}
	s.ranges = nil
	s.loading = false
	s.seed = ""
	s.pools = nil
	s.canvas = canvas.New()
	s.order = nil
	s.paying = false
	s.outcome = 0
	s.notices = nil
}

func (s *Session) goTo(next Screen) {
	if s.screen == Composition && next != Composition && s.pools != nil {
		s.pools.Abort()
	}
	if s.screen == Budget {
		s.loading = false
	}
	if s.screen == Checkout {
		s.paying = false
	}
	s.log.Debug("screen", zap.String("from", string(s.screen)), zap.String("to", string(next)))
	s.screen = next
	s.epoch++
}

func (s *Session) notify(level NoticeLevel, format string, args ...any) {
	s.notices = append(s.notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
	if len(s.notices) > maxNotices {
		s.notices = slices.Clone(s.notices[len(s.notices)-maxNotices:])
	}
}

func (s *Session) require(screens ...Screen) error {
	if !slices.Contains(screens, s.screen) {
		return fmt.Errorf("%w: %s", ErrWrongScreen, s.screen)
	}
	return nil
}

func (s *Session) transition(from ...Screen) error {
	if !slices.Contains(from, s.screen) {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.screen)
	}
	return nil
}

func (s *Session) questionScreen() Screen {
	if s.engine.Stage() == persona.StageTwo {
		return Stage2
	}
	return Stage1
}

// Start begins a fresh questionnaire from the landing screen.
func (s *Session) Start() error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.transition(Landing); err != nil {
		return err
	}
	s.engine.Reset()
	s.goTo(Stage1)
	return nil
}

// Answer picks option i of the current question.
func (s *Session) Answer(option int) error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Stage1, Stage2); err != nil {
		return err
	}
	out, err := s.engine.AnswerIndex(option)
	if err != nil {
		if errors.Is(err, persona.ErrUnknownOption) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return err
	}
	if out.Complete {
		s.persona = out.Persona
		s.deps.Metrics.Classified(string(out.Persona))
		s.log.Info("classified", zap.String("persona", string(out.Persona)))
		s.goTo(Result)
		return nil
	}
	if next := s.questionScreen(); next != s.screen {
		s.goTo(next)
	}
	return nil
}

// Back undoes one step. Inside the questionnaire it pops one answer and
// leaves to landing once nothing is left to undo.
func (s *Session) Back() error {
	s.lock()
	defer s.mu.Unlock()
	switch s.screen {
	case Stage1, Stage2, Result:
		if !s.engine.Back() {
			s.goTo(Landing)
			return nil
		}
		s.persona = ""
		if next := s.questionScreen(); next != s.screen {
			s.goTo(next)
		}
	case Guide, Budget:
		s.goTo(Result)
	case Composition:
		s.goTo(Budget)
	case Checkout:
		s.order = nil
		s.goTo(Composition)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.screen)
	}
	return nil
}

func (s *Session) ViewGuide() error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.transition(Result); err != nil {
		return err
	}
	s.goTo(Guide)
	return nil
}

func (s *Session) CloseGuide() error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.transition(Guide); err != nil {
		return err
	}
	s.goTo(Result)
	return nil
}

// Confirm accepts the persona and opens budget entry. Price ranges are
// loaded afterwards; when they cannot be loaded the budget is unconstrained.
func (s *Session) Confirm(ctx context.Context) error {
	s.lock()
	if err := s.transition(Result); err != nil {
		s.mu.Unlock()
		return err
	}
	s.goTo(Budget)
	epoch := s.epoch
	src := s.deps.Ranges
	s.mu.Unlock()

	if src == nil {
		return nil
	}
	start := time.Now()
	ranges, err := src.PriceRanges(ctx)
	s.deps.Metrics.ObserveCatalog("price_ranges", err, time.Since(start))

	s.lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.deps.Metrics.Stale("price_ranges")
		return nil
	}
	if err != nil {
		s.log.Warn("price ranges unavailable", zap.Error(err))
		return nil
	}
	s.ranges = ranges
	return nil
}

// SetBound edits one category's bounds; nil clears a side. The returned
// issues cover every category and are advisory until SubmitBudget.
func (s *Session) SetBound(cat catalog.Category, lo, hi *int64) (budget.Issues, error) {
	s.lock()
	defer s.mu.Unlock()
	if err := s.require(Budget); err != nil {
		return nil, err
	}
	if s.loading {
		return nil, ErrBusy
	}
	if !slices.Contains(catalog.Categories, cat) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, cat)
	}
	if (lo != nil && *lo < 0) || (hi != nil && *hi < 0) {
		return nil, fmt.Errorf("%w: negative price", ErrInvalidInput)
	}
	b := catalog.Bound{Min: lo, Max: hi}
	if b.IsZero() {
		delete(s.bounds, cat)
	} else {
		s.bounds[cat] = b.Clone()
	}
	return budget.Validate(s.bounds, s.ranges), nil
}

// SubmitBudget runs the budget gate, then fetches the catalog. The session
// moves to composition only when the fetch succeeds.
func (s *Session) SubmitBudget(ctx context.Context) error {
	s.lock()
	if err := s.transition(Budget); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if issues := budget.Validate(s.bounds, s.ranges); len(issues) > 0 {
		for _, is := range issues {
			s.notify(NoticeWarning, "%s: %s", is.Category, is.Message)
		}
		s.mu.Unlock()
		return issues
	}
	s.loading = true
	epoch := s.epoch
	req := catalog.Request{Persona: string(s.persona), Bounds: s.bounds.Clone()}
	s.mu.Unlock()

	start := time.Now()
	res, err := s.deps.Catalog.Fetch(ctx, req)
	s.deps.Metrics.ObserveCatalog("products", err, time.Since(start))

	s.lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.deps.Metrics.Stale("products")
		return ErrStale
	}
	s.loading = false
	if err != nil {
		s.log.Warn("catalog fetch failed", zap.Error(err))
		s.notify(NoticeError, "Could not load items. Please try again.")
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	s.seed = res.Seed
	s.pools = shuffle.New(res.Buckets)
	s.goTo(Composition)
	return nil
}

// Shuffle re-rolls one category within the current outfit seed. Other
// categories stay usable while it runs.
func (s *Session) Shuffle(ctx context.Context, cat catalog.Category) error {
	s.lock()
	if err := s.require(Composition); err != nil {
		s.mu.Unlock()
		return err
	}
	pools := s.pools
	ticket, err := pools.Begin(cat)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	epoch := s.epoch
	req := catalog.Request{
		Persona:  string(s.persona),
		Seed:     s.seed,
		Category: cat,
	}
	if b, ok := s.bounds[cat]; ok {
		req.Bounds = catalog.Bounds{cat: b.Clone()}
	}
	s.mu.Unlock()

	start := time.Now()
	res, err := s.deps.Catalog.Fetch(ctx, req)
	s.deps.Metrics.ObserveCatalog("shuffle", err, time.Since(start))

	s.lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.pools != pools {
		s.deps.Metrics.Stale("shuffle")
		return ErrStale
	}
	s.deps.Metrics.Shuffled(string(cat), err)
	if err != nil {
		pools.Fail(ticket)
		s.log.Warn("shuffle failed", zap.String("category", string(cat)), zap.Error(err))
		s.notify(NoticeError, "Could not shuffle %s. Showing the previous items.", cat)
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if !pools.Complete(ticket, res.Buckets[cat]) {
		s.deps.Metrics.Stale("shuffle")
		return ErrStale
	}
	if s.seed == "" {
		s.seed = res.Seed
	}
	return nil
}

// Handoff freezes the canvas into a checkout snapshot.
func (s *Session) Handoff() error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.transition(Composition); err != nil {
		return err
	}
	snap, err := checkout.Finalize(string(s.persona), s.canvas.Items())
	if err != nil {
		s.notify(NoticeWarning, "Place at least one item before checking out.")
		return err
	}
	s.canvas.EndDrag()
	s.order = &snap
	s.outcome = 0
	s.goTo(Checkout)
	return nil
}

// Edit returns from checkout to the canvas, discarding the snapshot.
func (s *Session) Edit() error {
	s.lock()
	defer s.mu.Unlock()
	if err := s.transition(Checkout); err != nil {
		return err
	}
	s.order = nil
	s.goTo(Composition)
	return nil
}

// Pay submits the checkout snapshot. A duplicate outfit counts as success.
func (s *Session) Pay(ctx context.Context) (checkout.Outcome, error) {
	s.lock()
	if err := s.require(Checkout); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if s.paying {
		s.mu.Unlock()
		return 0, ErrBusy
	}
	sub := s.deps.Checkout
	if sub == nil {
		s.notify(NoticeError, "Checkout is not available right now.")
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: no checkout service configured", ErrCheckoutFailed)
	}
	order := s.order.Order()
	if len(order.Items) == 0 {
		s.notify(NoticeWarning, "None of the placed items can be ordered.")
		s.mu.Unlock()
		return 0, checkout.ErrEmptySelection
	}
	s.paying = true
	epoch := s.epoch
	s.mu.Unlock()

	out, err := sub.Submit(ctx, order)

	s.lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.deps.Metrics.Stale("checkout")
		return 0, ErrStale
	}
	s.paying = false
	if err != nil {
		s.deps.Metrics.CheckedOut("error")
		s.log.Warn("checkout failed", zap.Error(err))
		var se *checkout.SubmitError
		if errors.As(err, &se) && se.Message != "" {
			s.notify(NoticeError, "%s", se.Message)
		} else {
			s.notify(NoticeError, "Checkout failed. Please try again.")
		}
		return 0, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	s.outcome = out
	s.deps.Metrics.CheckedOut(out.String())
	switch out {
	case checkout.Duplicate:
		s.notify(NoticeInfo, "This outfit was already saved.")
	default:
		s.notify(NoticeInfo, "Your outfit has been saved.")
	}
	return out, nil
}

// Reset returns to landing from any screen and drops all session state.
// Responses to requests issued before the reset are discarded.
func (s *Session) Reset() {
	s.lock()
	defer s.mu.Unlock()
	if s.pools != nil {
		s.pools.Abort()
	}
	s.clear()
	s.goTo(Landing)
}
