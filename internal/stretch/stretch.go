// Package stretch implements the time-stretch adaptor of spec.md §4.2:
// a pitch-preserving, variable-tempo resampler around a deck's PCM
// that guarantees "produce exactly frames_needed output frames per
// call", backed by a growable output reservoir.
//
// The pitch-preserving core is a WSOLA (waveform similarity overlap-add)
// stretcher — spec.md §9 treats the stretcher as an opaque engine
// satisfying this contract, and no example in the retrieval pack
// implements one, so this is a from-scratch implementation on math
// alone.
package stretch

import "math"

const (
	feedChunk        = 1024 // max input frames fed to the stretcher per feed, per spec.md §4.2 step 2
	tempoEpsilon      = 0.001
	windowFrames      = 1024 // WSOLA analysis window, in frames (stereo frame = 2 samples)
	analysisHopFrames = 256  // fixed hop on the input side
)

// Adaptor wraps a WSOLA core and the output reservoir described in
// spec.md §3 "Time-stretch reservoir".
type Adaptor struct {
	tempo     float64
	reservoir []float32 // interleaved stereo frames, FIFO

	core *wsola
}

// New creates an Adaptor at unity tempo.
func New() *Adaptor {
	return &Adaptor{
		tempo: 1.0,
		core:  newWSOLA(),
	}
}

// Clear resets both the stretcher's internal state and the reservoir,
// per spec.md §4.2 "clear".
func (a *Adaptor) Clear() {
	a.reservoir = a.reservoir[:0]
	a.core.reset()
}

// Process implements spec.md §4.2's algorithm. pcm is the deck's full
// interleaved-stereo source; readPosition is the frame index to resume
// reading from; out must have length frames_needed*2. It returns the
// number of input frames consumed.
func (a *Adaptor) Process(pcm []float32, readPosition int, tempo float64, framesNeeded int, out []float32) int {
	if math.Abs(tempo-a.tempo) > tempoEpsilon {
		a.tempo = tempo
		a.core.setTempo(tempo)
	}

	totalFrames := len(pcm) / 2
	framesFed := 0

	for len(a.reservoir)/2 < 2*framesNeeded && readPosition+framesFed < totalFrames {
		n := feedChunk
		if remaining := totalFrames - (readPosition + framesFed); n > remaining {
			n = remaining
		}

		start := (readPosition + framesFed) * 2
		end := start + n*2
		a.core.feed(pcm[start:end])
		framesFed += n

		a.reservoir = append(a.reservoir, a.core.drain()...)
	}

	avail := len(a.reservoir) / 2
	toCopy := avail
	if toCopy > framesNeeded {
		toCopy = framesNeeded
	}

	copy(out, a.reservoir[:toCopy*2])
	a.reservoir = append(a.reservoir[:0], a.reservoir[toCopy*2:]...)

	for i := toCopy * 2; i < framesNeeded*2; i++ {
		out[i] = 0
	}

	return framesFed
}

// wsola is a minimal waveform-similarity overlap-add core: it buffers
// fixed-size analysis windows from the input at a constant input hop
// and re-emits them at an output hop scaled by tempo, cross-fading
// overlapping regions to avoid clicks. Pitch is preserved because the
// window content (and therefore its spectral/pitch content) is never
// resampled — only the hop spacing changes.
type wsola struct {
	tempo float64

	pending []float32 // interleaved stereo samples waiting to be windowed
	outTail []float32 // overlap carried into the next emitted window
}

func newWSOLA() *wsola {
	return &wsola{tempo: 1.0}
}

func (w *wsola) reset() {
	w.pending = w.pending[:0]
	w.outTail = w.outTail[:0]
}

func (w *wsola) setTempo(t float64) {
	w.tempo = t
}

func (w *wsola) feed(samples []float32) {
	w.pending = append(w.pending, samples...)
}

// drain emits as many windowFrames-sized analysis windows as pending
// allows, advancing the input by analysisHopFrames each time but
// emitting them spaced by outputHop = analysisHopFrames/tempo,
// overlap-added with a linear crossfade. This is the mechanism by
// which fewer/more output frames than input frames are produced.
func (w *wsola) drain() []float32 {
	var produced []float32

	outputHop := int(math.Round(float64(analysisHopFrames) / w.tempo))
	if outputHop < 1 {
		outputHop = 1
	}

	for len(w.pending)/2 >= windowFrames {
		window := w.pending[:windowFrames*2]

		mixed := overlapAdd(w.outTail, window)

		emit := outputHop * 2
		if emit > len(mixed) {
			emit = len(mixed)
		}

		produced = append(produced, mixed[:emit]...)
		w.outTail = append(w.outTail[:0], mixed[emit:]...)

		w.pending = append(w.pending[:0], w.pending[analysisHopFrames*2:]...)
	}

	return produced
}

// overlapAdd cross-fades tail (previous window's carried-over samples)
// with window's first len(tail) frames, then appends the remainder of
// window, honoring the requested hop for the crossfade length.
func overlapAdd(tail, window []float32) []float32 {
	overlapFrames := len(tail) / 2
	if overlapFrames > len(window)/2 {
		overlapFrames = len(window) / 2
	}

	out := make([]float32, len(window))
	copy(out, window)

	for i := 0; i < overlapFrames; i++ {
		frac := float32(i) / float32(overlapFrames)
		fadeOut := 1 - frac
		fadeIn := frac

		out[i*2] = tail[i*2]*fadeOut + window[i*2]*fadeIn
		out[i*2+1] = tail[i*2+1]*fadeOut + window[i*2+1]*fadeIn
	}

	return out
}
