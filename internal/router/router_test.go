package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_FastPathStereoPassthrough(t *testing.T) {
	cfg := Config{OutputChannels: 2, MainL: 0, MainR: 1, CueL: Disabled, CueR: Disabled}

	mix := []float32{0.5, -0.5, 2.0, -2.0}
	out := make([]float32, 4)

	Route(cfg, mix, nil, nil, 2, out)

	assert.Equal(t, []float32{0.5, -0.5, 1.0, -1.0}, out, "fast path must clip and pass through verbatim")
}

func TestRoute_FourChannelCueAndMain(t *testing.T) {
	cfg := Config{
		OutputChannels: 4,
		MainL:          2, MainR: 3,
		CueL: 0, CueR: 1,
		CueEnabled: [2]bool{true, false},
	}

	mix := []float32{0.2, 0.3}
	preA := []float32{0.9, -0.9}
	preB := []float32{0.1, 0.1}

	out := make([]float32, 4)
	Route(cfg, mix, preA, preB, 1, out)

	assert.InDelta(t, 0.9, out[0], 1e-6, "cue left should carry deck A pre-mix")
	assert.InDelta(t, -0.9, out[1], 1e-6, "cue right should carry deck A pre-mix")
	assert.InDelta(t, 0.2, out[2], 1e-6, "main left should carry the mix")
	assert.InDelta(t, 0.3, out[3], 1e-6, "main right should carry the mix")

	for _, v := range out {
		assert.LessOrEqual(t, v, float32(1.0))
		assert.GreaterOrEqual(t, v, float32(-1.0))
	}
}

func TestRoute_MonoFallback(t *testing.T) {
	cfg := Config{OutputChannels: 1, MainL: 0, MainR: Disabled, CueL: Disabled, CueR: Disabled}

	mix := []float32{1.0, 0.0}
	out := make([]float32, 1)

	Route(cfg, mix, nil, nil, 1, out)

	assert.InDelta(t, 0.5, out[0], 1e-6, "mono fallback should average L and R")
}

func TestConfig_ClampDisablesOutOfRange(t *testing.T) {
	cfg := Config{OutputChannels: 2, MainL: 5, MainR: 1, CueL: -3, CueR: 1}
	cfg.Clamp()

	assert.Equal(t, Disabled, cfg.MainL)
	assert.Equal(t, 1, cfg.MainR)
	assert.Equal(t, Disabled, cfg.CueL)
}
