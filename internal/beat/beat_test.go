package beat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clickTrack synthesizes an impulse every interval seconds for
// duration seconds at sampleRate, per spec.md §8 scenario 2.
func clickTrack(bpm float64, durationSeconds float64, sampleRate int) []float32 {
	n := int(durationSeconds * float64(sampleRate))
	out := make([]float32, n)

	interval := 60.0 / bpm
	step := int(interval * float64(sampleRate))

	for i := 0; i < n; i += step {
		// A short decaying click, not a single sample, so it carries
		// energy across more than one FFT bin.
		for d := 0; d < 64 && i+d < n; d++ {
			decay := float32(1.0 - float64(d)/64.0)
			out[i+d] = decay
		}
	}

	return out
}

func TestTrack_ClickTrackTempoAndGrid(t *testing.T) {
	const sampleRate = 44100

	mono := clickTrack(120, 30, sampleRate)

	result, err := Track(mono, sampleRate)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.BPM, 118.0)
	assert.LessOrEqual(t, result.BPM, 122.0)
	assert.GreaterOrEqual(t, len(result.Beats), 55)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, confidenceMax)
}

func TestTrack_BeatGridIsConstantTempo(t *testing.T) {
	const sampleRate = 44100

	mono := clickTrack(120, 20, sampleRate)

	result, err := Track(mono, sampleRate)
	require.NoError(t, err)
	require.Greater(t, len(result.Beats), 2)

	interval := result.Beats[1] - result.Beats[0]

	for i := 1; i < len(result.Beats); i++ {
		got := result.Beats[i] - result.Beats[i-1]
		assert.InDelta(t, interval, got, 1e-6, "beat-grid law: all intervals must be equal (constant tempo)")
	}
}

func TestTrack_TooShortInputErrors(t *testing.T) {
	_, err := Track(make([]float32, 10), 44100)
	assert.Error(t, err)
}
