package engine

import "github.com/mjstrand/twindeck/internal/mixer"

// processChunkLocked renders one chunk and returns it at the device's
// channel count. Caller must hold e.mu.
func (e *Engine) processChunkLocked() []float32 {
	frames := FramesPerChunk

	bufA := make([]float32, frames*2)
	bufB := make([]float32, frames*2)

	e.decks[0].Process(frames, bufA)
	e.decks[1].Process(frames, bufB)

	e.meters[0].Update(bufA, e.decks[0].Gain)
	e.meters[1].Update(bufB, e.decks[1].Gain)

	completion := e.crossfade.Advance(frames)

	if completion.Completed {
		switch completion.Dir {
		case mixer.AtoB:
			e.decks[0].Playing = false
		case mixer.BtoA:
			e.decks[1].Playing = false
		}
	}

	curveA, curveB := mixer.Gains(e.crossfade.Position, e.decks[0].Playing, e.decks[1].Playing)
	gainA := curveA * e.decks[0].Gain
	gainB := curveB * e.decks[1].Gain

	mix := make([]float32, frames*2)
	mixer.Mix(mix, bufA, bufB, gainA, gainB)

	e.mic.Apply(mix, frames)

	out := make([]float32, frames*e.outputChannels)
	e.routeLocked(mix, bufA, bufB, frames, out)

	return out
}
