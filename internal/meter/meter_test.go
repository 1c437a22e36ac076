package meter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpdate_PeakHoldNeverBelowPeak(t *testing.T) {
	s := New()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	s.Update([]float32{0.8, -0.8}, 1.0)
	assert.GreaterOrEqual(t, s.PeakHold, s.Peak)

	now = now.Add(10 * time.Millisecond)
	s.Update([]float32{0.1, -0.1}, 1.0)
	assert.GreaterOrEqual(t, s.PeakHold, s.Peak)
	assert.InDelta(t, 0.8, s.PeakHold, 1e-9, "hold must not decay before 1.5s")
}

func TestUpdate_DecaysAfterHoldWindow(t *testing.T) {
	s := New()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	s.Update([]float32{0.8}, 1.0)

	now = now.Add(2 * time.Second)
	s.Update([]float32{0.0}, 1.0)

	assert.Less(t, s.PeakHold, 0.8)
	assert.GreaterOrEqual(t, s.PeakHold, 0.0)
}

func TestUpdate_GainApplied(t *testing.T) {
	s := New()
	s.Update([]float32{1.0}, 0.5)

	assert.InDelta(t, 0.5, s.Peak, 1e-9)
}
