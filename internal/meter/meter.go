// Package meter implements the peak meter with logarithmic-decay peak
// hold described in spec.md §4.7.
package meter

import (
	"math"
	"time"
)

const (
	holdDuration = 1500 * time.Millisecond
	decayDbPerS  = 6.0
)

// State is the per-deck meter state of spec.md §3 "Level meter state".
type State struct {
	Peak     float64
	PeakHold float64

	heldValue float64 // PeakHold value frozen at holdSetAt, decay reference
	holdSetAt time.Time
	now       func() time.Time
}

// New creates a State. now defaults to time.Now; tests may override it
// for deterministic decay timing.
func New() *State {
	return &State{now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *State) SetClock(now func() time.Time) {
	s.now = now
}

// Update computes the new peak from chunk (interleaved stereo, before
// gain) as max(|sample|) × deckGain, per spec.md §4.7, and advances
// the peak-hold decay.
func (s *State) Update(chunk []float32, deckGain float64) {
	var peak float64

	for _, v := range chunk {
		av := float64(v)
		if av < 0 {
			av = -av
		}

		if av > peak {
			peak = av
		}
	}

	peak *= deckGain
	s.Peak = peak

	now := s.now()

	if peak > s.PeakHold {
		s.PeakHold = peak
		s.heldValue = peak
		s.holdSetAt = now

		return
	}

	if s.holdSetAt.IsZero() {
		s.holdSetAt = now
		s.heldValue = s.PeakHold

		return
	}

	if now.Sub(s.holdSetAt) <= holdDuration {
		return
	}

	elapsed := now.Sub(s.holdSetAt) - holdDuration
	decayed := linearToDb(s.heldValue) - decayDbPerS*elapsed.Seconds()
	s.PeakHold = math.Max(dbToLinear(decayed), peak)

	if s.PeakHold < 0 {
		s.PeakHold = 0
	}
}

func linearToDb(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func dbToLinear(db float64) float64 {
	if math.IsInf(db, -1) {
		return 0
	}

	return math.Pow(10, db/20)
}
