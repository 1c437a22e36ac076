// Package decode implements the decoder + resampler (C10) of spec.md
// §4.10: decompress a container to stereo+mono PCM at the engine rate,
// then derive a beat grid and a coarse structural segmentation.
//
// Container demuxing/decoding uses github.com/gopxl/beep's format
// packages, grounded on the retrieval pack's go-musicfox reference
// manifest (the only pack entry decoding compressed audio containers
// in idiomatic Go). The target-rate conversion is deliberately NOT
// beep.Resample — spec.md §4.10/§9 specify nearest-neighbour scaling
// explicitly, so that step is hand-rolled.
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"github.com/mjstrand/twindeck/internal/beat"
	"github.com/mjstrand/twindeck/internal/dlog"
	"github.com/mjstrand/twindeck/internal/engine"
)

var log = dlog.Named("decode")

// HotCue is a named position within a track, part of the
// decoded-track record named in spec.md §6 but left untyped there.
type HotCue struct {
	Label      string
	Position01 float64
}

// Segment is one part of the structural segmentation of spec.md §6.
type Segment struct {
	StartSeconds float64
	EndSeconds   float64
	BeatCount    int
}

// Structure is the intro/main/outro segmentation of spec.md §6.
type Structure struct {
	Intro, Main, Outro Segment
}

// Track is the decoded-track record of spec.md §6.
type Track struct {
	Stereo     []float32 // interleaved, channel-clamped to 2
	Mono       []float32
	SampleRate int
	Channels   int

	BPM       *float64
	Structure *Structure
	HotCues   []HotCue
	Beats     []float64
}

// Decode reads path, decodes it to the target sample rate/channels,
// and runs beat tracking + structural segmentation on the mono output,
// per spec.md §4.10.
func Decode(path string, targetRate, targetChannels int) (*Track, error) {
	streamer, format, err := openContainer(path)
	if errors.Is(err, errUnrecognizedContainer) {
		return nil, engine.NewNoAudioTrack(err)
	}

	if err != nil {
		return nil, engine.NewDecoderFailure(err)
	}
	defer streamer.Close()

	raw, sourceRate, err := decodeAll(streamer, format)
	if err != nil {
		return nil, engine.NewDecoderFailure(err)
	}

	if len(raw) == 0 {
		return nil, engine.NewNoSamplesDecoded(fmt.Errorf("%s: zero samples decoded", path))
	}

	stereo, mono := resampleAndDerive(raw, sourceRate, targetRate)

	track := &Track{
		Stereo:     stereo,
		Mono:       mono,
		SampleRate: targetRate,
		Channels:   targetChannels,
	}

	result, err := beat.Track(mono, targetRate)
	if err != nil {
		log.Warn("beat tracking failed", "path", path, "err", err)
	} else {
		bpm := result.BPM
		track.BPM = &bpm
		track.Beats = result.Beats

		track.Structure = segmentStructure(mono, targetRate, result.Beats)
	}

	return track, nil
}

// openContainer picks a decoder by the file extension hint, per
// spec.md §4.10 "probe container by extension hint".
func openContainer(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		_ = f.Close()

		return nil, beep.Format{}, fmt.Errorf("%s: %w", path, errUnrecognizedContainer)
	}
}

var errUnrecognizedContainer = errors.New("no audio track for unrecognised container")

// decodeAll drains streamer's full length into an interleaved float64
// buffer at the source rate. beep normalizes every container to
// stereo, so the channel count is always 2.
func decodeAll(streamer beep.Streamer, format beep.Format) ([]float64, int, error) {
	const batch = 4096

	samples := make([][2]float64, batch)

	var out []float64

	for {
		n, ok := streamer.Stream(samples)
		for i := 0; i < n; i++ {
			out = append(out, samples[i][0], samples[i][1])
		}

		if !ok {
			break
		}
	}

	return out, int(format.SampleRate), nil
}

func clamp1(v float64) float32 {
	if v > 1 {
		return 1
	}

	if v < -1 {
		return -1
	}

	return float32(v)
}

// resampleAndDerive scales interleaved stereo raw (at sourceRate) to
// targetRate by nearest-neighbour frame lookup, per spec.md §4.10/§9,
// and derives the clamped stereo and mono outputs in parallel.
func resampleAndDerive(raw []float64, sourceRate, targetRate int) ([]float32, []float32) {
	sourceFrames := len(raw) / 2

	if sourceRate == targetRate {
		stereo := make([]float32, sourceFrames*2)
		mono := make([]float32, sourceFrames)

		for i := 0; i < sourceFrames; i++ {
			l, r := raw[i*2], raw[i*2+1]
			stereo[i*2] = clamp1(l)
			stereo[i*2+1] = clamp1(r)
			mono[i] = clamp1((l + r) / 2)
		}

		return stereo, mono
	}

	targetFrames := int(float64(sourceFrames) * float64(targetRate) / float64(sourceRate))

	stereo := make([]float32, targetFrames*2)
	mono := make([]float32, targetFrames)

	for i := 0; i < targetFrames; i++ {
		srcIdx := resampleIndex(i, sourceRate, targetRate, sourceFrames)

		l, r := raw[srcIdx*2], raw[srcIdx*2+1]
		stereo[i*2] = clamp1(l)
		stereo[i*2+1] = clamp1(r)
		mono[i] = clamp1((l + r) / 2)
	}

	return stereo, mono
}

// resampleIndex computes the source frame for target frame i by
// truncating i*sourceRate/targetRate, clamped to the last source
// frame, per spec.md §4.10's nearest-neighbour sample-rate scaling.
func resampleIndex(i, sourceRate, targetRate, sourceFrames int) int {
	idx := int(float64(i) * float64(sourceRate) / float64(targetRate))
	if idx >= sourceFrames {
		idx = sourceFrames - 1
	}

	return idx
}
