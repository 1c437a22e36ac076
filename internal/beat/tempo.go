package beat

import "math"

// estimateTempo autocorrelates combined over lags corresponding to
// 60-200 BPM, picks the highest-correlation local maximum whose BPM
// falls in [80,160]; if none qualifies, takes the strongest peak and
// octave-folds by x2/÷2 until inside [80,160], then finally into
// [80,170], per spec.md §4.11.
func estimateTempo(combined []float64, odfRate float64) float64 {
	lagForBPM := func(bpm float64) int {
		return int(math.Round(odfRate * 60.0 / bpm))
	}

	minLag := lagForBPM(maxBPM)
	maxLag := lagForBPM(minBPM)

	if maxLag >= len(combined) {
		maxLag = len(combined) - 1
	}

	if minLag < 1 {
		minLag = 1
	}

	corr := autocorrelate(combined, minLag, maxLag)

	peaks := localMaxima(corr, minLag)

	var bestQualified *int

	var bestQualifiedCorr float64

	var bestOverall int

	var bestOverallCorr float64

	first := true

	for _, lag := range peaks {
		bpm := odfRate * 60.0 / float64(lag)

		c := corr[lag]

		if first || c > bestOverallCorr {
			bestOverallCorr = c
			bestOverall = lag
			first = false
		}

		if bpm >= qualifyLoBPM && bpm <= qualifyHiBPM {
			if bestQualified == nil || c > bestQualifiedCorr {
				l := lag
				bestQualified = &l
				bestQualifiedCorr = c
			}
		}
	}

	var bpm float64

	if bestQualified != nil {
		bpm = odfRate * 60.0 / float64(*bestQualified)
	} else if bestOverall > 0 {
		bpm = odfRate * 60.0 / float64(bestOverall)
		bpm = foldToRange(bpm, qualifyLoBPM, qualifyHiBPM)
	} else {
		bpm = 120
	}

	return foldToRange(bpm, foldLoBPM, foldHiBPM)
}

// autocorrelate computes normalised autocorrelation of series for lags
// in [minLag, maxLag].
func autocorrelate(series []float64, minLag, maxLag int) []float64 {
	corr := make([]float64, maxLag+1)

	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64

		n := len(series) - lag
		if n <= 0 {
			continue
		}

		for i := 0; i < n; i++ {
			sum += series[i] * series[i+lag]
		}

		corr[lag] = sum / float64(n)
	}

	return corr
}

// localMaxima returns indices > start that are strictly greater than
// both neighbours.
func localMaxima(series []float64, start int) []int {
	var peaks []int

	for i := start + 1; i < len(series)-1; i++ {
		if series[i] > series[i-1] && series[i] > series[i+1] {
			peaks = append(peaks, i)
		}
	}

	return peaks
}

// foldToRange repeatedly doubles or halves bpm until it falls in
// [lo,hi], per spec.md §4.11's octave-folding rule.
func foldToRange(bpm, lo, hi float64) float64 {
	for bpm > hi {
		bpm /= 2
	}

	for bpm < lo {
		bpm *= 2
	}

	return bpm
}
