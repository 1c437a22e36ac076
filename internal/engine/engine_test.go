package engine

import (
	"math"
	"testing"

	"github.com/mjstrand/twindeck/internal/mixer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWave(freqHz float64, seconds float64) []float32 {
	n := int(seconds * SampleRate)
	out := make([]float32, n*2)

	for i := 0; i < n; i++ {
		s := float32(math.Sin(2 * math.Pi * freqHz * float64(i) / SampleRate))
		out[i*2] = s
		out[i*2+1] = s
	}

	return out
}

func TestScenario_SilentDeckProducesSilenceAndAdvances(t *testing.T) {
	e := New()
	e.LoadTrack(mixer.A, make([]float32, SampleRate*10*2), nil, "")
	e.SetCrossfaderPosition(0)
	e.Play(mixer.A)

	framesIn1s := SampleRate
	chunks := framesIn1s / FramesPerChunk

	e.mu.Lock()
	for i := 0; i < chunks; i++ {
		chunk := e.processChunkLocked()
		for _, v := range chunk {
			require.Zero(t, v)
		}
	}
	pos := e.decks[mixer.A].Position
	e.mu.Unlock()

	gotSeconds := float64(pos) / SampleRate
	assert.InDelta(t, 1.0, gotSeconds, 0.05)
}

func TestScenario_CrossfadedSinesStayInRange(t *testing.T) {
	e := New()
	e.LoadTrack(mixer.A, sineWave(440, 5), nil, "")
	e.LoadTrack(mixer.B, sineWave(880, 5), nil, "")
	e.Play(mixer.A)
	e.Play(mixer.B)
	e.SetCrossfaderPosition(0.5)

	e.mu.Lock()
	chunk := e.processChunkLocked()
	e.mu.Unlock()

	assert.Equal(t, FramesPerChunk*e.OutputChannels(), len(chunk))

	for _, v := range chunk {
		assert.LessOrEqual(t, v, float32(1.0))
		assert.GreaterOrEqual(t, v, float32(-1.0))
	}
}

func TestScenario_AutoCrossfadeCompletes(t *testing.T) {
	e := New()
	e.LoadTrack(mixer.A, sineWave(440, 10), nil, "")
	e.LoadTrack(mixer.B, sineWave(880, 10), nil, "")
	e.Play(mixer.A)

	target := 1.0
	e.StartCrossfade(&target, 2.0)

	totalFrames := int(2.0 * SampleRate)
	chunks := totalFrames/FramesPerChunk + 2

	e.mu.Lock()
	for i := 0; i < chunks; i++ {
		e.processChunkLocked()
	}
	e.mu.Unlock()

	snap := e.GetState()

	assert.InDelta(t, 1.0, snap.CrossfaderPosition, 1e-6)
	assert.False(t, snap.IsCrossfading)
	assert.False(t, snap.Decks[mixer.A].Playing)
	assert.True(t, snap.Decks[mixer.B].Playing)
}

func TestInvariant_ChunkLengthAndRange(t *testing.T) {
	e := New()
	e.LoadTrack(mixer.A, sineWave(220, 2), nil, "")
	e.Play(mixer.A)

	e.mu.Lock()
	chunk := e.processChunkLocked()
	e.mu.Unlock()

	require.Equal(t, FramesPerChunk*e.OutputChannels(), len(chunk))

	for _, v := range chunk {
		require.LessOrEqual(t, v, float32(1.0))
		require.GreaterOrEqual(t, v, float32(-1.0))
	}
}

func TestNormalizeDeck_InvalidIndexDefaultsToB(t *testing.T) {
	assert.Equal(t, mixer.B, normalizeDeck(mixer.Deck(99)))
	assert.Equal(t, mixer.A, normalizeDeck(mixer.A))
}

func TestSetEQCut_InvalidBandIsInvalidArgument(t *testing.T) {
	e := New()

	err := e.SetEQCut(mixer.A, 7, true)
	require.Error(t, err)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, InvalidArgument, engErr.Kind)
}
