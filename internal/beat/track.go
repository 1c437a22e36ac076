package beat

import "math"

// trackBeats seeds on the first ODF value above 0.15 within the first
// two beat periods, then iteratively searches +-15% of the beat period
// around each expected position for the local ODF maximum, per spec.md
// §4.11.
func trackBeats(combined []float64, odfRate, beatInterval float64) []float64 {
	periodFrames := beatInterval * odfRate

	seedWindow := int(2 * periodFrames)
	if seedWindow > len(combined) {
		seedWindow = len(combined)
	}

	seedIdx := -1

	for i := 0; i < seedWindow; i++ {
		if combined[i] > onsetSeedThreshold {
			seedIdx = i
			break
		}
	}

	if seedIdx == -1 {
		return nil
	}

	var beats []float64

	beats = append(beats, float64(seedIdx)/odfRate)

	expected := float64(seedIdx) + periodFrames

	for expected < float64(len(combined)) {
		searchRadius := periodFrames * beatSearchFrac

		lo := int(math.Max(0, expected-searchRadius))
		hi := int(math.Min(float64(len(combined)-1), expected+searchRadius))

		actual := argmaxRange(combined, lo, hi)
		if actual < 0 {
			actual = int(expected)
		}

		beats = append(beats, float64(actual)/odfRate)

		expected = float64(actual) + periodFrames
	}

	return beats
}

func argmaxRange(series []float64, lo, hi int) int {
	best := -1

	var bestV float64

	for i := lo; i <= hi && i < len(series); i++ {
		if best == -1 || series[i] > bestV {
			best = i
			bestV = series[i]
		}
	}

	return best
}
