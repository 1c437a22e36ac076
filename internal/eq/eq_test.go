package eq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess_BypassIsIdentity(t *testing.T) {
	p := New(44100)

	in := make([]float32, 64)
	for i := range in {
		in[i] = float32(i%7) / 7
	}

	out := append([]float32{}, in...)
	p.Process(out)

	assert.Equal(t, in, out, "EQ bypass law: identity when all cuts are false")
}

func TestProcess_AllCutIsSilence(t *testing.T) {
	p := New(44100)
	p.Cuts[Low] = true
	p.Cuts[Mid] = true
	p.Cuts[High] = true

	buf := make([]float32, 64)
	for i := range buf {
		buf[i] = 1
	}

	p.Process(buf)

	for _, v := range buf {
		assert.Zero(t, v, "EQ silence law: all cuts true must emit zeros")
	}
}

func TestProcess_LowCutAttenuatesLowTone(t *testing.T) {
	const sampleRate = 44100.0

	uncut := New(sampleRate)
	cut := New(sampleRate)
	cut.Cuts[Low] = true

	n := 2205 // 50ms
	buf1 := make([]float32, n*2)
	buf2 := make([]float32, n*2)

	for i := 0; i < n; i++ {
		s := float32(sin100Hz(i, sampleRate))
		buf1[i*2] = s
		buf1[i*2+1] = s
		buf2[i*2] = s
		buf2[i*2+1] = s
	}

	uncut.Process(buf1)
	cut.Process(buf2)

	assert.Less(t, rms(buf2), rms(buf1)*0.5, "low-cut should attenuate a 100Hz tone substantially")
}

func sin100Hz(i int, sampleRate float64) float64 {
	const freq = 100.0

	return math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
}

func rms(buf []float32) float64 {
	var sum float64

	for _, v := range buf {
		sum += float64(v) * float64(v)
	}

	return math.Sqrt(sum / float64(len(buf)))
}
