// Package beat implements the multi-feature beat tracker (C11) of
// spec.md §4.11: five onset detection functions combined into one,
// tempo estimated by autocorrelation, and a constant-tempo beat grid
// constructed via phase voting.
//
// Spectra for all five ODFs are computed with
// github.com/mjibson/go-dsp/fft, grounded on the retrieval pack's
// san-kum-dynsim reference file, the only pack entry doing real-time
// FFT analysis in Go. The Hann window follows the cgo-free,
// plain-math windowing-function style of the teacher's src/dsp.go
// window(), generalised to the one window the spec needs.
package beat

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	frameSize = 2048
	hopSize   = 512

	minBPM = 60.0
	maxBPM = 200.0

	qualifyLoBPM = 80.0
	qualifyHiBPM = 160.0

	foldLoBPM = 80.0
	foldHiBPM = 170.0

	onsetSeedThreshold = 0.15
	beatSearchFrac     = 0.15

	phaseBins      = 100
	phaseSmoothTap = 5

	confidenceToleranceSeconds = 0.050
	confidenceMax              = 5.32

	melBands  = 40
	melLoHz   = 20.0
	histBins  = 20
)

// Result is the beat tracker's output, per spec.md §3 "Beat tracker".
type Result struct {
	BPM        float64
	Beats      []float64 // seconds from start
	Confidence float64   // [0, 5.32]
}

// Track runs the full pipeline of spec.md §4.11 over mono PCM sampled
// at sampleRate.
func Track(mono []float32, sampleRate int) (Result, error) {
	if len(mono) < frameSize*2 {
		return Result{}, errors.New("beat: input too short")
	}

	window := hannWindow(frameSize)

	spectra := frameSpectra(mono, window)
	if len(spectra) < 3 {
		return Result{}, errors.New("beat: too few frames")
	}

	odfs := [5][]float64{
		complexSpectralDifference(spectra),
		energyFlux(mono, sampleRate),
		melSpectralFlux(spectra, sampleRate),
		nil, // filled below once flux is known (beat emphasis needs flux lag)
		informationGain(spectra),
	}

	flux := odfs[1]
	odfs[3] = beatEmphasis(flux, sampleRate)

	combined := combineODFs(odfs[:])

	odfRate := float64(sampleRate) / hopSize

	bpm := estimateTempo(combined, odfRate)

	beatInterval := 60.0 / bpm

	beats := trackBeats(combined, odfRate, beatInterval)

	firstBeat, aligned := phaseVote(beats, beatInterval)

	duration := float64(len(mono)) / float64(sampleRate)
	grid := buildGrid(firstBeat, beatInterval, duration)

	confidence := scoreConfidence(aligned, grid)

	return Result{BPM: round2(bpm), Beats: grid, Confidence: confidence}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// hannWindow returns a Hann window of length n, following the teacher's
// windowing style in src/dsp.go (plain math, no cgo).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	return w
}

// frameSpectra computes the magnitude-and-phase FFT of each
// hop-spaced, Hann-windowed frame.
func frameSpectra(mono []float32, window []float64) [][]complex128 {
	var frames [][]complex128

	for start := 0; start+frameSize <= len(mono); start += hopSize {
		buf := make([]float64, frameSize)
		for i := 0; i < frameSize; i++ {
			buf[i] = float64(mono[start+i]) * window[i]
		}

		frames = append(frames, fft.FFTReal(buf))
	}

	return frames
}

func magnitude(spectrum []complex128) []float64 {
	mags := make([]float64, len(spectrum)/2)
	for i := range mags {
		mags[i] = cmplx.Abs(spectrum[i])
	}

	return mags
}

func maxNormalize(series []float64) []float64 {
	var maxV float64

	for _, v := range series {
		if v > maxV {
			maxV = v
		}
	}

	if maxV == 0 {
		return series
	}

	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v / maxV
	}

	return out
}

// smooth3 applies a 3-tap moving average, per spec.md §4.11.
func smooth3(series []float64) []float64 {
	out := make([]float64, len(series))

	for i := range series {
		var sum float64

		var n int

		for d := -1; d <= 1; d++ {
			j := i + d
			if j >= 0 && j < len(series) {
				sum += series[j]
				n++
			}
		}

		out[i] = sum / float64(n)
	}

	return out
}

// combineODFs max-normalises and smooths each ODF, truncates to the
// shortest length, averages with equal weight, then max-normalises the
// result, per spec.md §4.11.
func combineODFs(odfs [][]float64) []float64 {
	shortest := -1

	processed := make([][]float64, len(odfs))

	for i, o := range odfs {
		processed[i] = smooth3(maxNormalize(o))

		if shortest == -1 || len(processed[i]) < shortest {
			shortest = len(processed[i])
		}
	}

	combined := make([]float64, shortest)

	for i := 0; i < shortest; i++ {
		var sum float64

		for _, p := range processed {
			sum += p[i]
		}

		combined[i] = sum / float64(len(processed))
	}

	return maxNormalize(combined)
}
