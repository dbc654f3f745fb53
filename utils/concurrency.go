package utils

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between consecutive upstream requests.
// It is safe for concurrent use.
type Pacer struct {
	mu          sync.Mutex
	interval    time.Duration
	lastRequest time.Time
}

// NewPacer creates a Pacer with the given minimum interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed.
// The first call never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastRequest.IsZero() {
		if remaining := p.interval - time.Since(p.lastRequest); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	p.lastRequest = time.Now()
	return nil
}

// VINSet is a thread-safe set for tracking VINs seen during a run.
type VINSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewVINSet creates an empty VINSet.
func NewVINSet() *VINSet {
	return &VINSet{seen: make(map[string]struct{})}
}

// Add returns true if the VIN was newly added, false if already present.
func (s *VINSet) Add(vin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[vin]; exists {
		return false
	}
	s.seen[vin] = struct{}{}
	return true
}

// Contains returns true if the VIN has already been seen.
func (s *VINSet) Contains(vin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[vin]
	return exists
}

// Size returns the number of unique VINs tracked.
func (s *VINSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
