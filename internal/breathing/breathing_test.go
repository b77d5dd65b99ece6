package breathing_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inova117/mamapanic/internal/breathing"
)

type fakeTicker struct{ ch chan time.Time }

func (f *fakeTicker) Chan() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()                  {}

type fakeClock struct{ ticker *fakeTicker }

func newFakeClock() *fakeClock {
	return &fakeClock{ticker: &fakeTicker{ch: make(chan time.Time, 64)}}
}

func (c *fakeClock) NewTicker(time.Duration) breathing.Ticker { return c.ticker }

// advance delivers n one-second beats.
func (c *fakeClock) advance(n int) {
	for i := 0; i < n; i++ {
		c.ticker.ch <- time.Time{}
	}
}

func waitForPhase(t *testing.T, s *breathing.Session, phase breathing.Phase) breathing.State {
	t.Helper()
	var st breathing.State
	require.Eventually(t, func() bool {
		st = s.State()
		return st.Phase == phase
	}, 2*time.Second, time.Millisecond, "waiting for phase %s", phase)
	return st
}

func TestPhases(t *testing.T) {
	phases := breathing.Phases()
	require.Len(t, phases, 3)

	assert.Equal(t, breathing.PhaseInhale, phases[0].Phase)
	assert.Equal(t, 4, phases[0].Seconds)
	assert.Equal(t, breathing.PhaseHold, phases[1].Phase)
	assert.Equal(t, 7, phases[1].Seconds)
	assert.Equal(t, breathing.PhaseExhale, phases[2].Phase)
	assert.Equal(t, 8, phases[2].Seconds)

	for _, p := range phases {
		assert.GreaterOrEqual(t, p.Scale, 0.5, p.Phase)
		assert.LessOrEqual(t, p.Scale, 1.0, p.Phase)
		assert.GreaterOrEqual(t, p.Opacity, 0.6, p.Phase)
		assert.LessOrEqual(t, p.Opacity, 1.0, p.Phase)
		assert.NotEmpty(t, p.Instruction, p.Phase)
	}
}

func TestSessionStartState(t *testing.T) {
	clock := newFakeClock()
	s := breathing.NewSession(clock, 0, nil)
	s.Start()
	defer s.Stop()

	st := s.State()
	assert.True(t, st.Active)
	assert.Equal(t, breathing.PhaseInhale, st.Phase)
	assert.Equal(t, 1, st.Cycle, "cycles are numbered from 1")
	assert.Equal(t, breathing.DefaultCycles, st.TotalCycles)
	assert.Equal(t, 4, st.Countdown)
	assert.Equal(t, 1.0, st.Scale)
}

func TestSessionPhaseSequence(t *testing.T) {
	clock := newFakeClock()
	s := breathing.NewSession(clock, 2, nil)
	s.Start()
	defer s.Stop()

	clock.advance(4)
	st := waitForPhase(t, s, breathing.PhaseHold)
	assert.Equal(t, 7, st.Countdown)
	assert.Equal(t, 1, st.Cycle)

	clock.advance(7)
	st = waitForPhase(t, s, breathing.PhaseExhale)
	assert.Equal(t, 8, st.Countdown)
	assert.Equal(t, 0.5, st.Scale)
	assert.Equal(t, 0.6, st.Opacity)

	clock.advance(8)
	st = waitForPhase(t, s, breathing.PhaseInhale)
	assert.Equal(t, 2, st.Cycle, "exhale completion advances the cycle")
	assert.Equal(t, 4, st.Countdown)
}

func TestSessionCompletesAfterFinalExhale(t *testing.T) {
	clock := newFakeClock()
	var completions atomic.Int32
	s := breathing.NewSession(clock, 2, func() { completions.Add(1) })
	s.Start()

	// Two full cycles of 4+7+8 seconds each.
	clock.advance(2 * (4 + 7 + 8))

	require.Eventually(t, func() bool { return s.Completed() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, int32(1), completions.Load(), "completion fires exactly once")

	st := s.State()
	assert.False(t, st.Active)
	assert.Equal(t, 0, st.Countdown, "countdown never goes negative")
}

func TestSessionStopCancelsWithoutCompletion(t *testing.T) {
	clock := newFakeClock()
	var completions atomic.Int32
	s := breathing.NewSession(clock, 2, func() { completions.Add(1) })
	s.Start()

	clock.advance(4)
	waitForPhase(t, s, breathing.PhaseHold)

	s.Stop()
	s.Stop() // idempotent

	st := s.State()
	assert.False(t, st.Active)
	assert.False(t, s.Completed())
	assert.Equal(t, int32(0), completions.Load(), "stopping is not completing")
}

func TestSessionStartWhileActiveIsNoop(t *testing.T) {
	clock := newFakeClock()
	s := breathing.NewSession(clock, 2, nil)
	s.Start()
	defer s.Stop()

	clock.advance(4)
	waitForPhase(t, s, breathing.PhaseHold)

	s.Start()
	st := s.State()
	assert.Equal(t, breathing.PhaseHold, st.Phase, "restart must not reset an active session")
}
