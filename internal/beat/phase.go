package beat

import "math"

// phaseVote implements spec.md §4.11's phase-voting alignment: for
// each detected beat b, phase = b mod beat_interval, binned into 100
// bins, smoothed with a 5-tap moving circular average; the winning
// bin's centre yields best_phase, and the grid's first beat is
// best_phase if < beat_interval/2 else best_phase - beat_interval
// (clamped >= 0). Returns the first-beat time and the detected beats
// (for confidence scoring).
func phaseVote(beats []float64, beatInterval float64) (firstBeat float64, aligned []float64) {
	if len(beats) == 0 {
		return 0, beats
	}

	votes := make([]float64, phaseBins)

	for _, b := range beats {
		phase := math.Mod(b, beatInterval)
		if phase < 0 {
			phase += beatInterval
		}

		bin := int(phase / beatInterval * phaseBins)
		if bin >= phaseBins {
			bin = phaseBins - 1
		}

		votes[bin]++
	}

	smoothed := smoothCircular(votes, phaseSmoothTap)

	bestBin := 0

	for i, v := range smoothed {
		if v > smoothed[bestBin] {
			bestBin = i
		}
	}

	binWidth := beatInterval / phaseBins
	bestPhase := (float64(bestBin) + 0.5) * binWidth

	if bestPhase < beatInterval/2 {
		firstBeat = bestPhase
	} else {
		firstBeat = bestPhase - beatInterval
	}

	if firstBeat < 0 {
		firstBeat = 0
	}

	return firstBeat, beats
}

// smoothCircular applies a tap-wide moving average treating series as
// circular (for phase histograms, bin 0 is adjacent to the last bin).
func smoothCircular(series []float64, taps int) []float64 {
	n := len(series)
	half := taps / 2

	out := make([]float64, n)

	for i := 0; i < n; i++ {
		var sum float64

		for d := -half; d <= half; d++ {
			j := (i + d + n) % n
			sum += series[j]
		}

		out[i] = sum / float64(taps)
	}

	return out
}

// buildGrid lays out evenly spaced beats at firstBeat + k*beatInterval
// while within duration, per spec.md §4.11.
func buildGrid(firstBeat, beatInterval, duration float64) []float64 {
	var grid []float64

	for t := firstBeat; t < duration; t += beatInterval {
		grid = append(grid, t)
	}

	return grid
}
