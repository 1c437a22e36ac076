package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResampleAndDerive_SameRateIsPassthrough(t *testing.T) {
	raw := []float64{0.5, -0.5, 1.0, -1.0}

	stereo, mono := resampleAndDerive(raw, 44100, 44100)

	assert.Equal(t, []float32{0.5, -0.5, 1.0, -1.0}, stereo)
	assert.Equal(t, []float32{0, 0}, mono)
}

func TestResampleAndDerive_DownsampleHalvesFrameCount(t *testing.T) {
	raw := make([]float64, 0, 8*2)
	for i := 0; i < 8; i++ {
		raw = append(raw, float64(i)/8, float64(i)/8)
	}

	stereo, mono := resampleAndDerive(raw, 8000, 4000)

	assert.Len(t, mono, 4)
	assert.Len(t, stereo, 8)
}

func TestResampleIndex_ClampsToLastFrame(t *testing.T) {
	idx := resampleIndex(100, 44100, 44100, 50)
	assert.Equal(t, 49, idx)
}

func TestResampleIndex_ScalesProportionally(t *testing.T) {
	idx := resampleIndex(10, 22050, 44100, 1000)
	assert.Equal(t, 5, idx)
}

func TestClamp1_ClipsOutOfRange(t *testing.T) {
	assert.Equal(t, float32(1), clamp1(1.5))
	assert.Equal(t, float32(-1), clamp1(-1.5))
	assert.Equal(t, float32(0.25), clamp1(0.25))
}

func TestSegmentStructure_TooFewBeatsReturnsNil(t *testing.T) {
	beats := make([]float64, 10)
	got := segmentStructure(make([]float32, 44100), 44100, beats)
	assert.Nil(t, got)
}

func TestSegmentStructure_ProducesOrderedSections(t *testing.T) {
	const sampleRate = 44100

	n := 60
	beats := make([]float64, n)
	for i := range beats {
		beats[i] = float64(i) * 0.5
	}

	durationSeconds := beats[n-1] + 1
	mono := make([]float32, int(durationSeconds*sampleRate))

	// Ramp amplitude so the main section reads as louder than the intro,
	// satisfying the rises-into-body sanity check.
	for i := range mono {
		mono[i] = float32(i) / float32(len(mono))
	}

	got := segmentStructure(mono, sampleRate, beats)
	if got == nil {
		t.Fatal("expected a structure, got nil")
	}

	assert.Equal(t, 0.0, got.Intro.StartSeconds)
	assert.Less(t, got.Intro.EndSeconds, got.Main.EndSeconds)
	assert.Less(t, got.Main.EndSeconds, got.Outro.EndSeconds)
	assert.InDelta(t, durationSeconds, got.Outro.EndSeconds, 1e-9)
}
