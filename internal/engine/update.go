package engine

// DeckUpdate is the per-deck slice of a state snapshot, per spec.md §6
// "State update record".
type DeckUpdate struct {
	PositionSeconds *float64
	Playing         bool
	TrackID         string
	Gain            float64
	CueEnabled      bool
	EQCuts          [3]bool
	LoopEnabled     bool
	LoopStart01     float64
	LoopEnd01       float64
	Peak            float64
	PeakHold        float64
}

// Update is the state snapshot of spec.md §6.
type Update struct {
	Decks [2]DeckUpdate

	CrossfaderPosition float64
	IsCrossfading      bool

	MasterTempo float64

	MicAvailable bool
	MicEnabled   bool
	MicPeak      float64

	UpdateReason string
}

// snapshotLocked builds an Update from current state. Caller must hold e.mu.
func (e *Engine) snapshotLocked(reason string) Update {
	u := Update{
		CrossfaderPosition: e.crossfade.Position,
		IsCrossfading:      e.crossfade.Active,
		MasterTempo:        e.masterTempo,
		MicAvailable:       e.micAvailable,
		MicEnabled:         e.mic.Enabled,
		MicPeak:            e.mic.Peak,
		UpdateReason:       reason,
	}

	for i, d := range e.decks {
		du := DeckUpdate{
			Playing:     d.Playing,
			TrackID:     d.TrackID,
			Gain:        d.Gain,
			CueEnabled:  e.chanCfg.CueEnabled[i],
			EQCuts:      d.EQ.Cuts,
			LoopEnabled: d.Loop.Enabled,
			Peak:        e.meters[i].Peak,
			PeakHold:    e.meters[i].PeakHold,
		}

		if total := d.TotalFrames(); total > 0 {
			posSeconds := float64(d.Position) / float64(SampleRate)
			du.PositionSeconds = &posSeconds
			du.LoopStart01 = float64(d.Loop.Start) / float64(total)
			du.LoopEnd01 = float64(d.Loop.End) / float64(total)
		}

		u.Decks[i] = du
	}

	return u
}

func (e *Engine) dispatchUpdate(reason string) {
	e.mu.Lock()
	snap := e.snapshotLocked(reason)
	cb := e.onUpdate
	e.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}
