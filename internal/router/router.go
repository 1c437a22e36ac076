// Package router implements the channel router of spec.md §4.6,
// mapping the stereo post-mix buffer and per-deck pre-mix cue taps
// onto N physical output channels.
package router

// Slot is an output channel index, or Disabled.
type Slot = int

// Disabled marks a mapping slot as unmapped, per spec.md §3 "Channel
// configuration".
const Disabled Slot = -1

// Config is the channel configuration of spec.md §3.
type Config struct {
	OutputChannels int
	MainL, MainR   Slot
	CueL, CueR     Slot
	CueEnabled     [2]bool // indexed by deck
}

// Clamp disables any slot that is out of range for the configured
// output channel count, per spec.md §6 "out-of-range indices are
// silently disabled".
func (c *Config) Clamp() {
	for _, s := range []*Slot{&c.MainL, &c.MainR, &c.CueL, &c.CueR} {
		if *s < 0 || *s >= c.OutputChannels {
			*s = Disabled
		}
	}
}

func clampSample(v float32) float32 {
	if v > 1 {
		return 1
	}

	if v < -1 {
		return -1
	}

	return v
}

// Route fills out (frames*OutputChannels samples) from mix (the
// stereo post-mix buffer) and preMix (the two decks' pre-mix stereo
// buffers, A then B), per spec.md §4.6.
func Route(cfg Config, mix []float32, preMixA, preMixB []float32, frames int, out []float32) {
	if cfg.CueL == Disabled && cfg.CueR == Disabled && cfg.OutputChannels == 2 {
		// Fast path: no cue bus needed and output is plain stereo.
		for i := 0; i < frames*2; i++ {
			out[i] = clampSample(mix[i])
		}

		return
	}

	cueActive := (cfg.CueEnabled[0] || cfg.CueEnabled[1]) && (cfg.CueL != Disabled || cfg.CueR != Disabled)

	for i := range out {
		out[i] = 0
	}

	for f := 0; f < frames; f++ {
		mixL, mixR := mix[f*2], mix[f*2+1]

		base := f * cfg.OutputChannels

		switch {
		case cfg.MainL != Disabled && cfg.MainR != Disabled:
			out[base+cfg.MainL] = clampSample(mixL)
			out[base+cfg.MainR] = clampSample(mixR)
		case cfg.MainL != Disabled:
			out[base+cfg.MainL] = clampSample((mixL + mixR) / 2)
		case cfg.MainR != Disabled:
			out[base+cfg.MainR] = clampSample((mixL + mixR) / 2)
		}

		if !cueActive {
			continue
		}

		var cueL, cueR float32
		var contributors int

		if cfg.CueEnabled[0] {
			cueL += preMixA[f*2]
			cueR += preMixA[f*2+1]
			contributors++
		}

		if cfg.CueEnabled[1] {
			cueL += preMixB[f*2]
			cueR += preMixB[f*2+1]
			contributors++
		}

		if contributors > 1 {
			cueL /= float32(contributors)
			cueR /= float32(contributors)
		}

		switch {
		case cfg.CueL != Disabled && cfg.CueR != Disabled:
			out[base+cfg.CueL] = clampSample(cueL)
			out[base+cfg.CueR] = clampSample(cueR)
		case cfg.CueL != Disabled:
			out[base+cfg.CueL] = clampSample((cueL + cueR) / 2)
		case cfg.CueR != Disabled:
			out[base+cfg.CueR] = clampSample((cueL + cueR) / 2)
		}
	}
}
