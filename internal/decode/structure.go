package decode

import "math"

const (
	rmsWindowSeconds = 0.5
	defaultIntroBeats = 16
	defaultOutroBeats = 16
)

// segmentStructure derives a coarse intro/main/outro segmentation from
// an RMS energy envelope, per spec.md §9's design note: "a heuristic
// (RMS envelope + beat-aligned intro/outro defaults of 16 beats)".
// Exposed but never depended on by the real-time path, per spec.md §4.10.
func segmentStructure(mono []float32, sampleRate int, beats []float64) *Structure {
	if len(beats) < defaultIntroBeats*2+defaultOutroBeats {
		return nil
	}

	duration := float64(len(mono)) / float64(sampleRate)

	introEnd := beats[defaultIntroBeats]

	outroStartIdx := len(beats) - defaultOutroBeats
	outroStart := beats[outroStartIdx]

	if outroStart <= introEnd {
		return nil
	}

	if !risesIntoBody(rmsEnvelope(mono, sampleRate), sampleRate, introEnd, outroStart) {
		return nil
	}

	return &Structure{
		Intro: Segment{StartSeconds: 0, EndSeconds: introEnd, BeatCount: defaultIntroBeats},
		Main: Segment{
			StartSeconds: introEnd,
			EndSeconds:   outroStart,
			BeatCount:    outroStartIdx - defaultIntroBeats,
		},
		Outro: Segment{StartSeconds: outroStart, EndSeconds: duration, BeatCount: defaultOutroBeats},
	}
}

// risesIntoBody checks that the main section's average RMS energy
// exceeds the intro's, a cheap sanity check against a mistracked beat
// grid producing a degenerate segmentation.
func risesIntoBody(env []float64, sampleRate int, introEnd, outroStart float64) bool {
	windowFrames := int(rmsWindowSeconds * float64(sampleRate))
	if windowFrames < 1 || len(env) == 0 {
		return true
	}

	introIdx := int(introEnd * float64(sampleRate) / float64(windowFrames))
	outroIdx := int(outroStart * float64(sampleRate) / float64(windowFrames))

	introAvg := avgRange(env, 0, introIdx)
	mainAvg := avgRange(env, introIdx, outroIdx)

	return mainAvg >= introAvg
}

func avgRange(env []float64, start, end int) float64 {
	if start < 0 {
		start = 0
	}

	if end > len(env) {
		end = len(env)
	}

	if end <= start {
		return 0
	}

	var sum float64
	for _, v := range env[start:end] {
		sum += v
	}

	return sum / float64(end-start)
}

// rmsEnvelope computes windowed RMS energy, used by segmentStructure's
// risesIntoBody sanity check. Section boundaries are not moved by it;
// they stay on the beat-aligned defaults.
func rmsEnvelope(mono []float32, sampleRate int) []float64 {
	windowFrames := int(rmsWindowSeconds * float64(sampleRate))
	if windowFrames < 1 {
		windowFrames = 1
	}

	var env []float64

	for start := 0; start < len(mono); start += windowFrames {
		end := start + windowFrames
		if end > len(mono) {
			end = len(mono)
		}

		var sumSq float64
		for _, v := range mono[start:end] {
			sumSq += float64(v) * float64(v)
		}

		env = append(env, math.Sqrt(sumSq/float64(end-start)))
	}

	return env
}
