// Package deck implements per-deck playback state described in
// spec.md §3 "Deck" and §4.3, wrapping the time-stretch adaptor (C2)
// and EQ processor (C1).
package deck

import (
	"github.com/mjstrand/twindeck/internal/eq"
	"github.com/mjstrand/twindeck/internal/stretch"
)

const (
	minRate = 0.5
	maxRate = 2.0
)

// Loop is the loop region of spec.md §3.
type Loop struct {
	Enabled bool
	Start   int
	End     int
}

// Deck holds one deck's full state.
type Deck struct {
	PCM        []float32 // interleaved stereo at engine rate, nil if empty
	Position   int
	Playing    bool
	SourceBPM  *float64
	Gain       float64 // linear [0,1]
	TrackID    string
	Loop       Loop

	Stretch *stretch.Adaptor
	EQ      *eq.Processor

	rate float64
}

// New creates an empty deck tuned for sampleRate.
func New(sampleRate float64) *Deck {
	return &Deck{
		Gain:    1,
		rate:    1,
		Stretch: stretch.New(),
		EQ:      eq.New(sampleRate),
	}
}

// TotalFrames is len(PCM)/2, or 0 if empty.
func (d *Deck) TotalFrames() int {
	if d.PCM == nil {
		return 0
	}

	return len(d.PCM) / 2
}

// Load installs new PCM per spec.md §4.8 "load_track".
func (d *Deck) Load(pcm []float32, bpm *float64, trackID string) {
	d.PCM = pcm
	d.Position = 0
	d.Playing = false
	d.SourceBPM = bpm
	d.TrackID = trackID
	d.Loop = Loop{}
	d.Stretch.Clear()
}

// RecomputeRate recalculates the playback rate from masterTempo per
// spec.md §3: clamp(master_tempo/source_bpm, 0.5, 2.0), or 1.0 if
// source BPM is unknown.
func (d *Deck) RecomputeRate(masterTempo float64) {
	if d.SourceBPM == nil || *d.SourceBPM <= 0 {
		d.rate = 1.0

		return
	}

	r := masterTempo / *d.SourceBPM
	if r < minRate {
		r = minRate
	}

	if r > maxRate {
		r = maxRate
	}

	d.rate = r
}

// Rate returns the current playback rate.
func (d *Deck) Rate() float64 {
	return d.rate
}

// Seek sets position per spec.md §4.8 "seek" and clears the stretcher.
func (d *Deck) Seek(position01 float64) {
	position01 = clamp01(position01)
	d.Position = roundInt(float64(d.TotalFrames()) * position01)
	d.Stretch.Clear()
}

// Process renders one chunk of frames into out (interleaved stereo,
// len(out) == frames*2), per spec.md §4.3.
func (d *Deck) Process(frames int, out []float32) {
	for i := range out {
		out[i] = 0
	}

	if !d.Playing || d.PCM == nil {
		return
	}

	consumed := d.Stretch.Process(d.PCM, d.Position, d.rate, frames, out)
	d.EQ.Process(out)

	d.Position += consumed

	if d.Loop.Enabled && d.Position >= d.Loop.End {
		d.Position = d.Loop.Start
		d.Stretch.Clear()

		return
	}

	if d.Position >= d.TotalFrames() {
		d.Playing = false
		d.Position = 0
		d.Stretch.Clear()
	}
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

func roundInt(v float64) int {
	if v < 0 {
		return 0
	}

	return int(v + 0.5)
}
