package beat

import (
	"math"
	"math/cmplx"
)

// complexSpectralDifference implements spec.md §4.11 ODF 1: for each
// bin k, diff += |X_k - (2*X_{k,-1} - X_{k,-2})|, summed over k.
func complexSpectralDifference(spectra [][]complex128) []float64 {
	out := make([]float64, len(spectra))

	for t, spec := range spectra {
		if t < 2 {
			continue
		}

		prev1 := spectra[t-1]
		prev2 := spectra[t-2]

		var sum float64

		n := len(spec)
		if len(prev1) < n {
			n = len(prev1)
		}

		if len(prev2) < n {
			n = len(prev2)
		}

		for k := 0; k < n; k++ {
			predicted := 2*prev1[k] - prev2[k]
			sum += cmplx.Abs(spec[k] - predicted)
		}

		out[t] = sum
	}

	return out
}

// energyFlux implements spec.md §4.11 ODF 2: positive difference of
// frame RMS, computed directly on the time-domain signal at the same
// hop spacing as the spectral ODFs.
func energyFlux(mono []float32, sampleRate int) []float64 {
	var rms []float64

	for start := 0; start+frameSize <= len(mono); start += hopSize {
		var sumSq float64

		for i := 0; i < frameSize; i++ {
			v := float64(mono[start+i])
			sumSq += v * v
		}

		rms = append(rms, math.Sqrt(sumSq/float64(frameSize)))
	}

	out := make([]float64, len(rms))

	for t := 1; t < len(rms); t++ {
		d := rms[t] - rms[t-1]
		if d > 0 {
			out[t] = d
		}
	}

	return out
}

// melSpectralFlux implements spec.md §4.11 ODF 3: sum of positive
// differences between successive log-mel spectra (40 bands, linear in
// mel between 20 Hz and Nyquist).
func melSpectralFlux(spectra [][]complex128, sampleRate int) []float64 {
	melSpectra := make([][]float64, len(spectra))

	filters := melFilterbank(melBands, sampleRate, frameSize)

	for t, spec := range spectra {
		mags := magnitude(spec)
		melSpectra[t] = applyFilterbank(mags, filters)

		for i, v := range melSpectra[t] {
			melSpectra[t][i] = math.Log(v + 1e-10)
		}
	}

	out := make([]float64, len(melSpectra))

	for t := 1; t < len(melSpectra); t++ {
		var sum float64

		for b := 0; b < melBands; b++ {
			d := melSpectra[t][b] - melSpectra[t-1][b]
			if d > 0 {
				sum += d
			}
		}

		out[t] = sum
	}

	return out
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank builds `bands` triangular filters linear in mel space
// between melLoHz and Nyquist, per spec.md §4.11.
func melFilterbank(bands, sampleRate, nfft int) [][]float64 {
	nyquist := float64(sampleRate) / 2

	melLo := hzToMel(melLoHz)
	melHi := hzToMel(nyquist)

	points := make([]float64, bands+2)
	for i := range points {
		mel := melLo + (melHi-melLo)*float64(i)/float64(bands+1)
		points[i] = melToHz(mel)
	}

	binFor := func(hz float64) int {
		return int(math.Floor((float64(nfft) + 1) * hz / float64(sampleRate)))
	}

	filters := make([][]float64, bands)
	nBins := nfft/2 + 1

	for b := 0; b < bands; b++ {
		filters[b] = make([]float64, nBins)

		lo := binFor(points[b])
		mid := binFor(points[b+1])
		hi := binFor(points[b+2])

		for k := lo; k < mid && k < nBins; k++ {
			if mid > lo {
				filters[b][k] = float64(k-lo) / float64(mid-lo)
			}
		}

		for k := mid; k < hi && k < nBins; k++ {
			if hi > mid {
				filters[b][k] = float64(hi-k) / float64(hi-mid)
			}
		}
	}

	return filters
}

func applyFilterbank(mags []float64, filters [][]float64) []float64 {
	out := make([]float64, len(filters))

	for b, filt := range filters {
		var sum float64

		n := len(mags)
		if len(filt) < n {
			n = len(filt)
		}

		for k := 0; k < n; k++ {
			sum += mags[k] * filt[k]
		}

		out[b] = sum
	}

	return out
}

// beatEmphasis implements spec.md §4.11 ODF 4: sqrt(flux_t *
// flux_{t-P}), where P is samples per 120 BPM beat at ODF rate.
func beatEmphasis(flux []float64, sampleRate int) []float64 {
	odfRate := float64(sampleRate) / hopSize
	period := int(math.Round(odfRate * 60.0 / 120.0))

	out := make([]float64, len(flux))

	for t := period; t < len(flux); t++ {
		product := flux[t] * flux[t-period]
		if product > 0 {
			out[t] = math.Sqrt(product)
		}
	}

	return out
}

// informationGain implements spec.md §4.11 ODF 5: KL divergence
// between successive 20-bin histograms of magnitude spectra.
func informationGain(spectra [][]complex128) []float64 {
	hists := make([][]float64, len(spectra))

	for t, spec := range spectra {
		hists[t] = magnitudeHistogram(magnitude(spec), histBins)
	}

	out := make([]float64, len(hists))

	for t := 1; t < len(hists); t++ {
		out[t] = klDivergence(hists[t], hists[t-1])
	}

	return out
}

func magnitudeHistogram(mags []float64, bins int) []float64 {
	var maxV float64

	for _, v := range mags {
		if v > maxV {
			maxV = v
		}
	}

	hist := make([]float64, bins)

	if maxV == 0 {
		for i := range hist {
			hist[i] = 1.0 / float64(bins)
		}

		return hist
	}

	for _, v := range mags {
		bin := int(v / maxV * float64(bins))
		if bin >= bins {
			bin = bins - 1
		}

		hist[bin]++
	}

	var total float64
	for _, c := range hist {
		total += c
	}

	if total == 0 {
		total = 1
	}

	for i := range hist {
		hist[i] = (hist[i] + 1e-10) / (total + float64(bins)*1e-10)
	}

	return hist
}

func klDivergence(p, q []float64) float64 {
	var sum float64

	for i := range p {
		sum += p[i] * math.Log(p[i]/q[i])
	}

	if sum < 0 {
		sum = 0
	}

	return sum
}
