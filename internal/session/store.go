package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Store holds live sessions in a bounded LRU. Evicted sessions are gone;
// their clients get ErrSessionNotFound and start over.
type Store struct {
	cache *lru.Cache[string, *Session]
	deps  Deps
}

func NewStore(size int, deps Deps) (*Store, error) {
	if deps.Bank == nil {
		return nil, fmt.Errorf("session store: question bank is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("session store: catalog gateway is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if size <= 0 {
		size = 10000
	}
	logger := deps.Logger
	metrics := deps.Metrics
	cache, err := lru.NewWithEvict(size, func(id string, _ *Session) {
		metrics.SessionEnded()
		logger.Debug("session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return &Store{cache: cache, deps: deps}, nil
}

func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.deps)
	st.cache.Add(s.ID(), s)
	st.deps.Metrics.SessionStarted()
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	if s, ok := st.cache.Get(id); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
}

func (st *Store) Delete(id string) bool {
	return st.cache.Remove(id)
}

func (st *Store) Len() int {
	return st.cache.Len()
}

// Sweep drops sessions that have not handled an event for longer than idle
// and reports how many were removed. idle <= 0 disables it.
func (st *Store) Sweep(idle time.Duration) int {
	return st.sweep(time.Now(), idle)
}

func (st *Store) sweep(now time.Time, idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	removed := 0
	for _, id := range st.cache.Keys() {
		s, ok := st.cache.Peek(id)
		if !ok || now.Sub(s.LastActive()) <= idle {
			continue
		}
		if st.cache.Remove(id) {
			removed++
		}
	}
	return removed
}

// SweepEvery runs Sweep on every tick until ctx is done.
func (st *Store) SweepEvery(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(idle); n > 0 {
				st.deps.Logger.Info("idle sessions swept", zap.Int("count", n))
			}
		}
	}
}
