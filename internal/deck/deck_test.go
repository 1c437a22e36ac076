package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSeek_PositionMatchesFraction(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		totalFrames := rapid.IntRange(100, 100000).Draw(t, "totalFrames")
		q := rapid.Float64Range(0, 1).Draw(t, "q")

		d := New(44100)
		d.PCM = make([]float32, totalFrames*2)

		d.Seek(q)

		expected := int(float64(totalFrames)*q + 0.5)
		require.InDelta(t, expected, d.Position, 1)
		require.GreaterOrEqual(t, d.Position, 0)
		require.LessOrEqual(t, d.Position, totalFrames)
	})
}

func TestProcess_StoppedDeckIsSilent(t *testing.T) {
	d := New(44100)
	d.PCM = make([]float32, 8820*2)
	for i := range d.PCM {
		d.PCM[i] = 1
	}

	out := make([]float32, 2048*2)
	d.Process(2048, out)

	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestProcess_EndOfTrackStopsAndResets(t *testing.T) {
	d := New(44100)
	d.PCM = make([]float32, 100*2) // shorter than one chunk
	d.Playing = true

	out := make([]float32, 2048*2)
	d.Process(2048, out)

	assert.False(t, d.Playing)
	assert.Equal(t, 0, d.Position)
}

func TestProcess_LoopWrapsWithinBounds(t *testing.T) {
	d := New(44100)
	d.PCM = make([]float32, 20000*2)
	d.Playing = true
	d.Loop = Loop{Enabled: true, Start: 1000, End: 3000}
	d.Position = 2900

	out := make([]float32, 2048*2)

	for i := 0; i < 20; i++ {
		d.Process(2048, out)
		assert.GreaterOrEqual(t, d.Position, d.Loop.Start)
		assert.Less(t, d.Position, d.Loop.End)
	}
}
