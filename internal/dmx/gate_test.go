package dmx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateGateRoundTrip(t *testing.T) {
	g := NewRateGate()
	assert.Equal(t, DefaultRate, g.Rate())

	for hz := MinRate; hz <= MaxRate; hz++ {
		require.NoError(t, g.SetRate(hz))
		assert.InDelta(t, hz, g.Rate(), 1, "rate %d", hz)
	}
}

func TestRateGateRejectsOutOfRange(t *testing.T) {
	g := NewRateGate()
	require.NoError(t, g.SetRate(30))

	for _, hz := range []int{0, 45, -1, 1000} {
		err := g.SetRate(hz)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.True(t, errors.Is(ValidateRate(hz), ErrInvalidArgument))
	}
	assert.Equal(t, 30, g.Rate())
	assert.NoError(t, ValidateRate(MinRate))
	assert.NoError(t, ValidateRate(MaxRate))
}

func TestRateGateZeroIntervalReportsZero(t *testing.T) {
	g := NewRateGate()
	g.intervalMs = 0
	assert.Equal(t, 0, g.Rate())
}

func TestRateGateSpacing(t *testing.T) {
	tests := []struct {
		name    string
		spacing time.Duration
		want    int
	}{
		{name: "5ms apart", spacing: 5 * time.Millisecond, want: 1},
		{name: "30ms apart", spacing: 30 * time.Millisecond, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			g := NewRateGateWithClock(clock.Now)
			require.NoError(t, g.SetRate(44))

			sent := 0
			if g.Allow() {
				sent++
			}
			clock.Advance(tt.spacing)
			if g.Allow() {
				sent++
			}
			assert.Equal(t, tt.want, sent)
		})
	}
}

func TestRateGateRejectionHasNoSideEffect(t *testing.T) {
	clock := newFakeClock()
	g := NewRateGateWithClock(clock.Now)
	require.NoError(t, g.SetRate(10)) // 100ms

	require.True(t, g.Allow())
	clock.Advance(60 * time.Millisecond)
	require.False(t, g.Allow())
	clock.Advance(40 * time.Millisecond)
	assert.True(t, g.Allow(), "rejected attempt must not move the window")
}

func TestRateGateReset(t *testing.T) {
	clock := newFakeClock()
	g := NewRateGateWithClock(clock.Now)

	require.True(t, g.Allow())
	require.False(t, g.Allow())
	g.Reset()
	assert.True(t, g.Allow())
}

func TestRateGateConcurrentSingleWinner(t *testing.T) {
	clock := newFakeClock()
	g := NewRateGateWithClock(clock.Now)

	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow() {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted)
}
