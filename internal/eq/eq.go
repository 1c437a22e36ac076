// Package eq implements the three-band EQ with kill switches described
// in spec.md §4.1: low/mid/high bands split by cascaded 2nd-order
// Butterworth filters, each band independently killable.
package eq

import "math"

const (
	lowCrossoverHz  = 250.0
	highCrossoverHz = 5000.0
	butterworthQ    = 0.70710678118 // 1/sqrt(2)
)

// Band names index Cuts and the per-band state.
const (
	Low = iota
	Mid
	High
	numBands
)

// biquad is a Direct-Form-I second-order section with persistent
// per-channel state, carried across chunks as spec.md §4.1 requires.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	// x1/x2, y1/y2 per channel (0 = left, 1 = right).
	x1, x2 [2]float64
	y1, y2 [2]float64
}

func (f *biquad) process(ch int, in float64) float64 {
	out := f.b0*in + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]

	f.x2[ch] = f.x1[ch]
	f.x1[ch] = in
	f.y2[ch] = f.y1[ch]
	f.y1[ch] = out

	return out
}

func lowpass(sampleRate, cutoff float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0, sinW0 := math.Cos(w0), math.Sin(w0)
	alpha := sinW0 / (2 * butterworthQ)

	a0 := 1 + alpha
	b0 := (1 - cosW0) / 2 / a0
	b1 := (1 - cosW0) / a0
	b2 := b0
	a1 := -2 * cosW0 / a0
	a2 := (1 - alpha) / a0

	return biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

func highpass(sampleRate, cutoff float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0, sinW0 := math.Cos(w0), math.Sin(w0)
	alpha := sinW0 / (2 * butterworthQ)

	a0 := 1 + alpha
	b0 := (1 + cosW0) / 2 / a0
	b1 := -(1 + cosW0) / a0
	b2 := b0
	a1 := -2 * cosW0 / a0
	a2 := (1 - alpha) / a0

	return biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// Processor holds the cascaded filter chains for the three bands and
// the kill-switch state. Zero value is not usable; use New.
type Processor struct {
	Cuts [numBands]bool

	lowA, lowB     biquad // two LPFs @ lowCrossoverHz in series
	midHPa, midHPb biquad // two HPFs @ lowCrossoverHz in series
	midLPa, midLPb biquad // two LPFs @ highCrossoverHz in series
	highA, highB   biquad // two HPFs @ highCrossoverHz in series
}

// New builds a Processor tuned for sampleRate.
func New(sampleRate float64) *Processor {
	return &Processor{
		lowA:   lowpass(sampleRate, lowCrossoverHz),
		lowB:   lowpass(sampleRate, lowCrossoverHz),
		midHPa: highpass(sampleRate, lowCrossoverHz),
		midHPb: highpass(sampleRate, lowCrossoverHz),
		midLPa: lowpass(sampleRate, highCrossoverHz),
		midLPb: lowpass(sampleRate, highCrossoverHz),
		highA:  highpass(sampleRate, highCrossoverHz),
		highB:  highpass(sampleRate, highCrossoverHz),
	}
}

// Process applies the EQ in place to interleaved stereo buf, following
// the bypass/silence/cascade contract of spec.md §4.1.
func (p *Processor) Process(buf []float32) {
	if !p.Cuts[Low] && !p.Cuts[Mid] && !p.Cuts[High] {
		return
	}

	if p.Cuts[Low] && p.Cuts[Mid] && p.Cuts[High] {
		for i := range buf {
			buf[i] = 0
		}

		return
	}

	// Bands always run, to keep filter state continuous across chunks
	// even while a band is muted; only the summation is conditional.
	frames := len(buf) / 2
	for i := 0; i < frames; i++ {
		for ch := 0; ch < 2; ch++ {
			in := float64(buf[i*2+ch])

			low := p.lowB.process(ch, p.lowA.process(ch, in))
			hp := p.midHPb.process(ch, p.midHPa.process(ch, in))
			mid := p.midLPb.process(ch, p.midLPa.process(ch, hp))
			high := p.highB.process(ch, p.highA.process(ch, in))

			var out float64
			if !p.Cuts[Low] {
				out += low
			}

			if !p.Cuts[Mid] {
				out += mid
			}

			if !p.Cuts[High] {
				out += high
			}

			buf[i*2+ch] = float32(out)
		}
	}
}
