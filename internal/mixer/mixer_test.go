package mixer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGains_ConstantPower(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.Float64Range(0, 1).Draw(t, "p")

		gainA, gainB := Gains(p, true, true)

		sumSquares := gainA*gainA + gainB*gainB
		require.InDelta(t, 1.0, sumSquares, 1e-9, "constant power invariant violated at p=%v", p)
	})
}

func TestGains_StoppedDeckIsSilent(t *testing.T) {
	gainA, gainB := Gains(0.5, false, true)
	assert.Zero(t, gainA)
	assert.Greater(t, gainB, 0.0)
}

func TestCrossfade_CompletesAfterDuration(t *testing.T) {
	var cf Crossfade

	target := 1.0
	cf.Start(&target, 2.0, 44100, true)

	assert.True(t, cf.Active)
	assert.Equal(t, AtoB, cf.Dir)

	frames := 2048
	totalFrames := cf.TotalFrames

	var lastResult AdvanceResult

	for cf.RemainingFrames > 0 {
		lastResult = cf.Advance(frames)
	}

	assert.True(t, lastResult.Completed)
	assert.InDelta(t, 1.0, cf.Position, 1e-9)
	assert.False(t, cf.Active)
	assert.Equal(t, totalFrames, int(math.Round(2.0*44100)))
}

func TestCrossfade_TargetEqualsCurrentIsBtoA(t *testing.T) {
	var cf Crossfade
	cf.Position = 0.5

	target := 0.5
	cf.Start(&target, 1.0, 44100, true)

	assert.Equal(t, BtoA, cf.Dir)
}

func TestCrossfade_StopCancelsAtomically(t *testing.T) {
	var cf Crossfade

	target := 1.0
	cf.Start(&target, 2.0, 44100, true)
	cf.Advance(100)
	cf.Cancel()

	assert.False(t, cf.Active)
	assert.Equal(t, 0, cf.RemainingFrames)
}

func TestMix_ElementWise(t *testing.T) {
	bufA := []float32{1, 1}
	bufB := []float32{0, 0}

	out := make([]float32, 2)
	Mix(out, bufA, bufB, 0.5, 0.5)

	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, 0.5, out[1], 1e-6)
}
