package store

import (
	"context"
	"sync"

	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

// CounterStore mirrors the singleton tally row. Failures are only logged.
type CounterStore struct {
	api CounterAPI
	log *zap.Logger

	mu      sync.RWMutex
	counter *models.Counter
	loading bool
}

func NewCounterStore(api CounterAPI, log *zap.Logger) *CounterStore {
	return &CounterStore{api: api, log: log}
}

// Counter returns the cached tallies, or nil before the first fetch.
func (s *CounterStore) Counter() *models.Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.counter == nil {
		return nil
	}
	c := *s.counter
	return &c
}

func (s *CounterStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *CounterStore) store(c *models.Counter) {
	s.mu.Lock()
	s.counter = c
	s.mu.Unlock()
}

func (s *CounterStore) Fetch(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	c, err := s.api.GetCounters(ctx)
	if err != nil {
		s.log.Warn("fetch counters failed", zap.Error(err))
		return
	}
	s.store(c)
}

func (s *CounterStore) Increment(ctx context.Context, counterType string) bool {
	return s.patch(ctx, counterType, models.CounterActionIncrement)
}

func (s *CounterStore) Decrement(ctx context.Context, counterType string) bool {
	return s.patch(ctx, counterType, models.CounterActionDecrement)
}

func (s *CounterStore) patch(ctx context.Context, counterType, action string) bool {
	c, err := s.api.PatchCounter(ctx, counterType, action)
	if err != nil {
		s.log.Warn("patch counter failed", zap.String("type", counterType), zap.String("action", action), zap.Error(err))
		return false
	}
	s.store(c)
	return true
}

// Set overwrites the given tallies; nil fields keep their value.
func (s *CounterStore) Set(ctx context.Context, v models.CounterValues) bool {
	c, err := s.api.PutCounters(ctx, v)
	if err != nil {
		s.log.Warn("set counters failed", zap.Error(err))
		return false
	}
	s.store(c)
	return true
}

// Apply replaces the cache with a counter pushed from the live feed.
func (s *CounterStore) Apply(c models.Counter) {
	s.store(&c)
}
