// Package quota tracks per-owner analysis usage in memory. Counters
// reset on a rolling daily window.
package quota

import (
	"context"
	"sync"
	"time"
)

type ownerUsage struct {
	count       int
	windowStart time.Time
}

// Store grants every owner a fixed daily allowance of model-backed
// analyses. Owners listed as entitled get model access at all.
type Store struct {
	mu         sync.Mutex
	usage      map[string]*ownerUsage
	dailyLimit int
	window     time.Duration
	entitled   map[string]bool
	defaultOn  bool
	now        func() time.Time
}

type Config struct {
	// DailyLimit caps model analyses per owner per window. Zero or
	// negative means unlimited.
	DailyLimit int
	// EntitledOwners restricts model access to the listed owner ids.
	// Empty means every owner is entitled.
	EntitledOwners []string
}

func New(cfg Config) *Store {
	entitled := make(map[string]bool, len(cfg.EntitledOwners))
	for _, owner := range cfg.EntitledOwners {
		entitled[owner] = true
	}
	return &Store{
		usage:      make(map[string]*ownerUsage),
		dailyLimit: cfg.DailyLimit,
		window:     24 * time.Hour,
		entitled:   entitled,
		defaultOn:  len(cfg.EntitledOwners) == 0,
		now:        time.Now,
	}
}

func (s *Store) AIEntitled(_ context.Context, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultOn {
		return true, nil
	}
	return s.entitled[ownerID], nil
}

func (s *Store) CheckQuota(_ context.Context, ownerID string) (bool, error) {
	if s.dailyLimit <= 0 {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining(ownerID) > 0, nil
}

func (s *Store) RecordUsage(_ context.Context, ownerID string) error {
	if s.dailyLimit <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := s.current(ownerID)
	usage.count++
	return nil
}

// remaining assumes the caller holds the lock.
func (s *Store) remaining(ownerID string) int {
	usage := s.current(ownerID)
	left := s.dailyLimit - usage.count
	if left < 0 {
		return 0
	}
	return left
}

// current resets an expired window before returning the entry. The
// caller holds the lock.
func (s *Store) current(ownerID string) *ownerUsage {
	now := s.now()
	usage, ok := s.usage[ownerID]
	if !ok || now.Sub(usage.windowStart) >= s.window {
		usage = &ownerUsage{windowStart: now}
		s.usage[ownerID] = usage
	}
	return usage
}
