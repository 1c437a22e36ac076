// Command djengine is an interactive terminal demo of the two-deck
// mixing engine, per SPEC_FULL.md §4.14: raw-mode keyboard control of the
// play/stop, crossfader, auto-crossfade, and mic/talkover operations.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mjstrand/twindeck/internal/config"
	"github.com/mjstrand/twindeck/internal/decode"
	"github.com/mjstrand/twindeck/internal/device"
	"github.com/mjstrand/twindeck/internal/dlog"
	"github.com/mjstrand/twindeck/internal/engine"
	"github.com/mjstrand/twindeck/internal/mixer"
	"github.com/pkg/term"
	"github.com/spf13/pflag"
)

var logger = dlog.Named("djengine")

const autoCrossfadeSeconds = 4.0

func main() {
	if err := run(); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	fs := pflag.NewFlagSet("djengine", pflag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "path to an optional YAML config file")

	cfg := config.Default()
	config.RegisterFlags(fs, &cfg)

	trackA := fs.String("track-a", "", "audio file to load on deck A")
	trackB := fs.String("track-b", "", "audio file to load on deck B")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		cfg = loaded

		if err := fs.Parse(os.Args[1:]); err != nil {
			return err
		}
	}

	dlog.SetLevel(parseLevel(cfg.LogLevel))

	eng := engine.New()
	eng.SetHighWaterMs(cfg.HighWaterMs)
	eng.SetChannelConfig(engine.ChannelConfig{
		MainL: cfg.MainChannelL,
		MainR: cfg.MainChannelR,
		CueL:  cfg.CueChannelL,
		CueR:  cfg.CueChannelR,
	})

	if err := device.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer device.Terminate()

	mgr := device.NewManager(eng)
	if err := mgr.Configure(cfg.DeviceName, engine.ChannelConfig{
		MainL: cfg.MainChannelL,
		MainR: cfg.MainChannelR,
		CueL:  cfg.CueChannelL,
		CueR:  cfg.CueChannelR,
	}); err != nil {
		return fmt.Errorf("configure device: %w", err)
	}
	defer mgr.Close()

	loadIfSet(eng, mixer.A, *trackA)
	loadIfSet(eng, mixer.B, *trackB)

	eng.Start()
	defer eng.Close()

	return runKeyboardLoop(eng)
}

func loadIfSet(eng *engine.Engine, d mixer.Deck, path string) {
	if path == "" {
		return
	}

	track, err := decode.Decode(path, engine.SampleRate, 2)
	if err != nil {
		logger.Error("decode failed", "path", path, "err", err)
		return
	}

	eng.LoadTrack(d, track.Stereo, track.BPM, path)
}

func parseLevel(name string) log.Level {
	switch name {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// runKeyboardLoop puts the terminal into raw mode and maps single
// keystrokes to engine operations, per SPEC_FULL.md §4.14:
//
//	space  toggle play/stop on deck A
//	z      toggle play/stop on deck B
//	[ / ]  nudge the crossfader left/right by 5%
//	l      start a 4-second auto-crossfade toward the opposite deck
//	m      toggle mic/talkover
//	q      quit
func runKeyboardLoop(eng *engine.Engine) error {
	tty, err := term.Open("/dev/tty")
	if err != nil {
		return fmt.Errorf("open tty: %w", err)
	}
	defer tty.Close()

	if err := term.RawMode(tty); err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer tty.Restore()

	fmt.Println("twindeck demo: space/z play-stop, [ ] crossfader, l auto-crossfade, m mic, q quit")

	buf := make([]byte, 1)
	micOn := false

	for {
		n, err := tty.Read(buf)
		if err != nil || n == 0 {
			return err
		}

		switch buf[0] {
		case 'q':
			return nil
		case ' ':
			togglePlay(eng, mixer.A)
		case 'z':
			togglePlay(eng, mixer.B)
		case '[':
			nudgeCrossfader(eng, -0.05)
		case ']':
			nudgeCrossfader(eng, 0.05)
		case 'l':
			startAutoCrossfade(eng)
		case 'm':
			micOn = !micOn
			eng.SetMicEnabled(micOn)
		}
	}
}

func togglePlay(eng *engine.Engine, d mixer.Deck) {
	snap := eng.GetState()
	if snap.Decks[d].Playing {
		eng.Stop(d)
	} else {
		eng.Play(d)
	}
}

func nudgeCrossfader(eng *engine.Engine, delta float64) {
	snap := eng.GetState()
	eng.SetCrossfaderPosition(snap.CrossfaderPosition + delta)
}

func startAutoCrossfade(eng *engine.Engine) {
	snap := eng.GetState()

	target := 1.0
	if snap.CrossfaderPosition > 0.5 {
		target = 0.0
	}

	eng.StartCrossfade(&target, autoCrossfadeSeconds)
}
