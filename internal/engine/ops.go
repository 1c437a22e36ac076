package engine

import (
	"fmt"

	"github.com/mjstrand/twindeck/internal/deck"
	"github.com/mjstrand/twindeck/internal/mixer"
	"github.com/mjstrand/twindeck/internal/router"
)

// LoadTrack installs PCM onto deck per spec.md §4.8 "load_track".
func (e *Engine) LoadTrack(d mixer.Deck, pcm []float32, bpm *float64, trackID string) {
	d = normalizeDeck(d)

	e.mu.Lock()
	e.decks[d].Load(pcm, bpm, trackID)
	e.decks[d].RecomputeRate(e.masterTempo)
	e.mu.Unlock()

	log.Info("track loaded", "deck", deckName(d), "track_id", trackID)
	e.dispatchUpdate("load")
}

// Play sets playing=true on deck, per spec.md §4.8 "play".
func (e *Engine) Play(d mixer.Deck) {
	d = normalizeDeck(d)

	e.mu.Lock()
	e.decks[d].Playing = true
	e.mu.Unlock()

	e.dispatchUpdate("play")
}

// Stop sets playing=false on deck and cancels any active auto-crossfade,
// per spec.md §4.8 "play/stop".
func (e *Engine) Stop(d mixer.Deck) {
	d = normalizeDeck(d)

	e.mu.Lock()
	e.decks[d].Playing = false
	e.crossfade.Cancel()
	e.mu.Unlock()

	e.dispatchUpdate("stop")
}

// Seek sets deck's position per spec.md §4.8 "seek".
func (e *Engine) Seek(d mixer.Deck, position01 float64) {
	d = normalizeDeck(d)

	e.mu.Lock()
	e.decks[d].Seek(position01)
	e.mu.Unlock()

	e.dispatchUpdate("seek")
}

// SetCrossfaderPosition sets the crossfader position directly, per
// spec.md §4.8. Out-of-range values are clamped.
func (e *Engine) SetCrossfaderPosition(p float64) {
	if p < 0 {
		p = 0
	}

	if p > 1 {
		p = 1
	}

	e.mu.Lock()
	e.crossfade.Position = p
	e.mu.Unlock()
}

// StartCrossfade begins an auto-crossfade per spec.md §4.4/§4.8.
func (e *Engine) StartCrossfade(target *float64, durationSeconds float64) {
	e.mu.Lock()
	aPlaying := e.decks[mixer.A].Playing
	e.crossfade.Start(target, durationSeconds, SampleRate, aPlaying)

	switch e.crossfade.Dir {
	case mixer.AtoB:
		e.decks[mixer.B].Playing = true
	case mixer.BtoA:
		e.decks[mixer.A].Playing = true
	}
	e.mu.Unlock()
}

// SetMasterTempo recomputes both decks' playback rates, per spec.md
// §4.8. Values outside (0,300] are silently ignored.
func (e *Engine) SetMasterTempo(bpm float64) {
	if bpm <= 0 || bpm > 300 {
		return
	}

	e.mu.Lock()
	e.masterTempo = bpm
	e.decks[0].RecomputeRate(bpm)
	e.decks[1].RecomputeRate(bpm)
	e.mu.Unlock()
}

// SetDeckGain applies the perceptual curve g^2 before storing, per
// spec.md §4.8.
func (e *Engine) SetDeckGain(d mixer.Deck, g float64) {
	d = normalizeDeck(d)

	if g < 0 {
		g = 0
	}

	if g > 1 {
		g = 1
	}

	e.mu.Lock()
	e.decks[d].Gain = g * g
	e.mu.Unlock()
}

// SetEQCut toggles a kill switch, per spec.md §4.8. band must be
// eq.Low, eq.Mid, or eq.High.
func (e *Engine) SetEQCut(d mixer.Deck, band int, enabled bool) error {
	d = normalizeDeck(d)

	if band < 0 || band > 2 {
		err := newError(InvalidArgument, fmt.Errorf("invalid EQ band %d", band))
		log.Error("set_eq_cut failed", "err", err)

		return err
	}

	e.mu.Lock()
	e.decks[d].EQ.Cuts[band] = enabled
	e.mu.Unlock()

	return nil
}

// SetDeckCueEnabled toggles whether a deck feeds the cue bus, per
// spec.md §4.8.
func (e *Engine) SetDeckCueEnabled(d mixer.Deck, enabled bool) {
	d = normalizeDeck(d)

	e.mu.Lock()
	e.chanCfg.CueEnabled[d] = enabled
	e.mu.Unlock()
}

// ChannelConfig is the caller-facing channel mapping request for
// SetChannelConfig.
type ChannelConfig struct {
	MainL, MainR int
	CueL, CueR   int
}

// SetChannelConfig applies a new channel mapping, clamped to the
// current output channel count, per spec.md §4.8.
func (e *Engine) SetChannelConfig(cfg ChannelConfig) {
	e.mu.Lock()
	e.chanCfg.MainL = router.Slot(cfg.MainL)
	e.chanCfg.MainR = router.Slot(cfg.MainR)
	e.chanCfg.CueL = router.Slot(cfg.CueL)
	e.chanCfg.CueR = router.Slot(cfg.CueR)
	e.chanCfg.Clamp()
	e.mu.Unlock()
}

// SetMicEnabled toggles mic/talkover, per spec.md §4.8.
func (e *Engine) SetMicEnabled(enabled bool) {
	e.mu.Lock()
	e.mic.Enabled = enabled
	e.mu.Unlock()
}

// SetMicGain sets mic gain clamped to [0,2], per spec.md §4.8.
func (e *Engine) SetMicGain(g float64) {
	if g < 0 {
		g = 0
	}

	if g > 2 {
		g = 2
	}

	e.mu.Lock()
	e.mic.Gain = g
	e.mu.Unlock()
}

// SetTalkoverDucking sets ducking clamped to [0,1], per spec.md §4.8.
func (e *Engine) SetTalkoverDucking(v float64) {
	if v < 0 {
		v = 0
	}

	if v > 1 {
		v = 1
	}

	e.mu.Lock()
	e.mic.TalkoverDucking = v
	e.mu.Unlock()
}

// SetLoop sets a loop region given as fractional positions, per
// spec.md §4.8 "set_loop".
func (e *Engine) SetLoop(d mixer.Deck, start01, end01 float64, enabled bool) {
	d = normalizeDeck(d)

	e.mu.Lock()
	total := e.decks[d].TotalFrames()
	e.decks[d].Loop = deckLoop(total, start01, end01, enabled)
	e.mu.Unlock()
}

// SetBeatLoop sets a loop region given as second offsets, jumping
// playback to loop_start if position now falls outside it, per
// spec.md §4.8 "set_beat_loop".
func (e *Engine) SetBeatLoop(d mixer.Deck, startSeconds, endSeconds float64) {
	d = normalizeDeck(d)

	e.mu.Lock()
	dk := e.decks[d]
	start := int(startSeconds * SampleRate)
	end := int(endSeconds * SampleRate)

	dk.Loop.Start = start
	dk.Loop.End = end
	dk.Loop.Enabled = end > start

	if dk.Loop.Enabled && (dk.Position < start || dk.Position >= end) {
		dk.Position = start
	}
	e.mu.Unlock()
}

// ClearLoop disables looping on deck, per spec.md §4.8.
func (e *Engine) ClearLoop(d mixer.Deck) {
	d = normalizeDeck(d)

	e.mu.Lock()
	e.decks[d].Loop = deck.Loop{}
	e.mu.Unlock()
}

// GetState returns a state snapshot on demand, per spec.md §4.8.
func (e *Engine) GetState() Update {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshotLocked("periodic")
}

// deckLoop converts fractional loop bounds to frame bounds, honoring
// the invariant end > start when enabled, per spec.md §3 "Deck".
func deckLoop(totalFrames int, start01, end01 float64, enabled bool) deck.Loop {
	start := int(clamp01(start01) * float64(totalFrames))
	end := int(clamp01(end01) * float64(totalFrames))

	if end <= start {
		enabled = false
	}

	return deck.Loop{Enabled: enabled, Start: start, End: end}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

func deckName(d mixer.Deck) string {
	if d == mixer.A {
		return "A"
	}

	return "B"
}
