// Package config loads engine tunables from an optional YAML file,
// overlaid by command-line flags. Precedence: flags > YAML > defaults.
package config

import (
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the engine tunables that spec.md leaves deployment-
// variable. Sample rate, frames-per-chunk, and the state-update
// cadence are fixed by spec.md §2/§6 and are not configurable here.
type Config struct {
	HighWaterMs  int    `yaml:"high_water_ms"`
	DeviceName   string `yaml:"device_name"`
	MainChannelL int    `yaml:"main_channel_left"`
	MainChannelR int    `yaml:"main_channel_right"`
	CueChannelL  int    `yaml:"cue_channel_left"`
	CueChannelR  int    `yaml:"cue_channel_right"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the built-in defaults named throughout spec.md §2/§6.
func Default() Config {
	return Config{
		HighWaterMs:  200,
		DeviceName:   "",
		MainChannelL: 0,
		MainChannelR: 1,
		CueChannelL:  -1,
		CueChannelR:  -1,
		LogLevel:     "info",
	}
}

// Load reads path (if non-empty and present) as YAML over the
// defaults. It does not parse flags; a caller that registered flags
// via RegisterFlags parses them again afterwards to apply overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// RegisterFlags binds pflag flags to cfg's fields, for a caller that
// wants to overlay command-line overrides after Load.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.HighWaterMs, "high-water-ms", cfg.HighWaterMs, "sample queue high-water mark in milliseconds")
	fs.StringVar(&cfg.DeviceName, "device", cfg.DeviceName, "output device name (empty = system default)")
	fs.IntVar(&cfg.MainChannelL, "main-left", cfg.MainChannelL, "output channel index for main left")
	fs.IntVar(&cfg.MainChannelR, "main-right", cfg.MainChannelR, "output channel index for main right")
	fs.IntVar(&cfg.CueChannelL, "cue-left", cfg.CueChannelL, "output channel index for cue left (-1 disables)")
	fs.IntVar(&cfg.CueChannelR, "cue-right", cfg.CueChannelR, "output channel index for cue right (-1 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}
