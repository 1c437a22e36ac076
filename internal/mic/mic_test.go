package mic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_DucksMusicWhenEnabled(t *testing.T) {
	s := New(44100)
	s.Enabled = true
	s.Gain = 1
	s.TalkoverDucking = 0.5

	frames := 10
	s.Capture(make([]float32, frames)) // silence, just to fill the ring

	mix := make([]float32, frames*2)
	for i := range mix {
		mix[i] = 1.0
	}

	s.Apply(mix, frames)

	assert.InDelta(t, 0.5, mix[0], 1e-6, "music should be attenuated by (1-ducking)")
}

func TestApply_InsufficientSamplesLeavesMixUntouched(t *testing.T) {
	s := New(44100)

	mix := []float32{0.7, 0.7}
	s.Apply(mix, 1)

	assert.Equal(t, float32(0.7), mix[0])
}

func TestApply_PeakUpdatesRegardlessOfEnabled(t *testing.T) {
	s := New(44100)
	s.Enabled = false

	frames := 4
	loud := make([]float32, frames)
	for i := range loud {
		loud[i] = 1.0
	}

	s.Capture(loud)

	mix := make([]float32, frames*2)
	s.Apply(mix, frames)

	assert.Greater(t, s.Peak, 0.0)
}
