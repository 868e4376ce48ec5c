package dmx

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	// MinRate and MaxRate bound the refresh rate in Hz.
	MinRate = 1
	MaxRate = 44
	// DefaultRate is the DMX512 maximum refresh for a full universe.
	DefaultRate = 44
)

// RateGate admits at most one transmission per interval.
// The check and the timestamp update happen in one critical section.
type RateGate struct {
	mu         sync.Mutex
	intervalMs float64
	last       time.Time
	now        func() time.Time
}

// NewRateGate returns a gate at DefaultRate using the monotonic wall clock.
func NewRateGate() *RateGate {
	return NewRateGateWithClock(time.Now)
}

// NewRateGateWithClock returns a gate reading time from now.
func NewRateGateWithClock(now func() time.Time) *RateGate {
	return &RateGate{
		intervalMs: 1000.0 / DefaultRate,
		now:        now,
	}
}

// ValidateRate checks a refresh rate in Hz.
func ValidateRate(hz int) error {
	if hz < MinRate || hz > MaxRate {
		return fmt.Errorf("%w: update rate must be between %d and %d Hz, got %d",
			ErrInvalidArgument, MinRate, MaxRate, hz)
	}
	return nil
}

// SetRate sets the interval from a rate in Hz (MinRate..MaxRate).
func (g *RateGate) SetRate(hz int) error {
	if err := ValidateRate(hz); err != nil {
		return err
	}
	g.mu.Lock()
	g.intervalMs = 1000.0 / float64(hz)
	g.mu.Unlock()
	return nil
}

// Rate returns the configured rate in Hz rounded from the stored interval.
func (g *RateGate) Rate() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.intervalMs <= 0 {
		return 0
	}
	return int(math.Round(1000.0 / g.intervalMs))
}

// Interval returns the minimum spacing between two admitted sends.
func (g *RateGate) Interval() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Duration(g.intervalMs * float64(time.Millisecond))
}

// Allow reports whether a send may proceed now and, if so, records it.
func (g *RateGate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	interval := time.Duration(g.intervalMs * float64(time.Millisecond))
	if !g.last.IsZero() && now.Sub(g.last) < interval {
		return false
	}
	if now.After(g.last) {
		g.last = now
	}
	return true
}

// Reset forgets the last send so the next Allow succeeds.
func (g *RateGate) Reset() {
	g.mu.Lock()
	g.last = time.Time{}
	g.mu.Unlock()
}
