// Package breathing drives the guided 4-7-8 exercise used during a
// crisis moment: inhale four seconds, hold seven, exhale eight.
package breathing

import (
	"sync"
	"time"
)

// Phase is one stage of a breathing cycle.
type Phase string

const (
	PhaseInhale Phase = "inhale"
	PhaseHold   Phase = "hold"
	PhaseExhale Phase = "exhale"
)

// DefaultCycles is how many full cycles a session runs unless configured.
const DefaultCycles = 3

// PhaseSpec describes one phase: how long it lasts, the prompt shown to
// the user, and the visual targets the client animates toward. Scale
// stays within [0.5, 1.0] and opacity within [0.6, 1.0].
type PhaseSpec struct {
	Phase       Phase   `json:"phase"`
	Seconds     int     `json:"seconds"`
	Instruction string  `json:"instruction"`
	Scale       float64 `json:"scale"`
	Opacity     float64 `json:"opacity"`
}

// Phases returns the fixed 4-7-8 sequence in order.
func Phases() []PhaseSpec {
	return []PhaseSpec{
		{Phase: PhaseInhale, Seconds: 4, Instruction: "Inhala profundo", Scale: 1.0, Opacity: 1.0},
		{Phase: PhaseHold, Seconds: 7, Instruction: "Sostén el aire", Scale: 1.0, Opacity: 1.0},
		{Phase: PhaseExhale, Seconds: 8, Instruction: "Exhala lentamente", Scale: 0.5, Opacity: 0.6},
	}
}

func specFor(p Phase) PhaseSpec {
	for _, s := range Phases() {
		if s.Phase == p {
			return s
		}
	}
	return Phases()[0]
}

// Ticker delivers the one-second beat a session counts down on.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Clock creates tickers. The real clock wraps time.NewTicker; tests
// substitute a manual one.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) Chan() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()                  { r.t.Stop() }

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SystemClock is the wall-clock used outside of tests.
var SystemClock Clock = realClock{}

// State is a point-in-time snapshot of a session.
type State struct {
	Active      bool    `json:"active"`
	Phase       Phase   `json:"phase"`
	Cycle       int     `json:"cycle"`
	TotalCycles int     `json:"total_cycles"`
	Countdown   int     `json:"countdown"`
	Instruction string  `json:"instruction"`
	Scale       float64 `json:"scale"`
	Opacity     float64 `json:"opacity"`
}

// Session runs breathing cycles on a one-second beat. Cycles are
// numbered from 1. A session completes after its final exhale.
type Session struct {
	clock       Clock
	totalCycles int
	onComplete  func()

	mu        sync.Mutex
	active    bool
	phase     Phase
	cycle     int
	countdown int
	ticker    Ticker
	stopCh    chan struct{}
	completed bool
}

// NewSession creates a session. totalCycles <= 0 falls back to
// DefaultCycles. onComplete fires at most once, after the final exhale
// finishes; it is nil-safe.
func NewSession(clock Clock, totalCycles int, onComplete func()) *Session {
	if clock == nil {
		clock = SystemClock
	}
	if totalCycles <= 0 {
		totalCycles = DefaultCycles
	}
	return &Session{
		clock:       clock,
		totalCycles: totalCycles,
		onComplete:  onComplete,
	}
}

// Start begins the first cycle at the inhale phase. Starting an active
// session is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.completed = false
	s.cycle = 1
	s.phase = PhaseInhale
	s.countdown = specFor(PhaseInhale).Seconds
	s.ticker = s.clock.NewTicker(time.Second)
	s.stopCh = make(chan struct{})
	ticker, stopCh := s.ticker, s.stopCh
	s.mu.Unlock()

	go s.run(ticker, stopCh)
}

func (s *Session) run(ticker Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			if done := s.tick(); done {
				return
			}
		}
	}
}

// tick advances the countdown by one second and reports whether the
// session finished.
func (s *Session) tick() bool {
	s.mu.Lock()

	if !s.active {
		s.mu.Unlock()
		return true
	}

	if s.countdown > 0 {
		s.countdown--
	}
	if s.countdown > 0 {
		s.mu.Unlock()
		return false
	}

	// Phase exhausted; move to the next one.
	switch s.phase {
	case PhaseInhale:
		s.phase = PhaseHold
		s.countdown = specFor(PhaseHold).Seconds
	case PhaseHold:
		s.phase = PhaseExhale
		s.countdown = specFor(PhaseExhale).Seconds
	case PhaseExhale:
		if s.cycle >= s.totalCycles {
			s.finishLocked()
			onComplete := s.onComplete
			s.mu.Unlock()
			if onComplete != nil {
				onComplete()
			}
			return true
		}
		s.cycle++
		s.phase = PhaseInhale
		s.countdown = specFor(PhaseInhale).Seconds
	}

	s.mu.Unlock()
	return false
}

// finishLocked tears the session down. Caller holds s.mu.
func (s *Session) finishLocked() {
	s.active = false
	s.completed = true
	s.countdown = 0
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Stop cancels the session immediately. No completion callback fires.
// Stopping an inactive session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec := specFor(s.phase)
	st := State{
		Active:      s.active,
		Phase:       s.phase,
		Cycle:       s.cycle,
		TotalCycles: s.totalCycles,
		Countdown:   s.countdown,
		Instruction: spec.Instruction,
		Scale:       spec.Scale,
		Opacity:     spec.Opacity,
	}
	if !s.active && !s.completed && s.cycle == 0 {
		st.Phase = PhaseInhale
		st.Instruction = specFor(PhaseInhale).Instruction
	}
	return st
}

// Completed reports whether the session ran all its cycles to the end.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}
