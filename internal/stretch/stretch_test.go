package stretch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_AlwaysReturnsExactFrameCount(t *testing.T) {
	pcm := make([]float32, 20000*2)
	for i := range pcm {
		pcm[i] = float32(i%100) / 100
	}

	a := New()

	out := make([]float32, 2048*2)
	consumed := a.Process(pcm, 0, 1.0, 2048, out)

	assert.Equal(t, 2048*2, len(out))
	assert.Greater(t, consumed, 0)
}

func TestProcess_EndOfTrackZeroFillsRemainder(t *testing.T) {
	pcm := make([]float32, 100*2)
	for i := range pcm {
		pcm[i] = 1
	}

	a := New()

	out := make([]float32, 2048*2)
	a.Process(pcm, 0, 1.0, 2048, out)

	nonZero := 0
	for _, v := range out {
		if v != 0 {
			nonZero++
		}
	}

	require.Less(t, nonZero, len(out), "short input must leave a zero-filled remainder")
}

func TestClear_ResetsReservoir(t *testing.T) {
	pcm := make([]float32, 20000*2)

	a := New()
	out := make([]float32, 512*2)
	a.Process(pcm, 0, 1.0, 512, out)

	a.Clear()

	assert.Empty(t, a.reservoir)
}
