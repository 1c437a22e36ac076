// Package device builds the PortAudio output/input streams that pump
// an *engine.Engine, per spec.md §4.9. Stream handles own their
// backend resources and reference the shared engine state only inside
// their callbacks, for brief bounded critical sections (spec.md §5).
//
// Grounded on the callback-driven PortAudio usage shown by the
// retrieval pack's rayboyd-audio-engine and san-kum-dynsim reference
// files: open a stream with a Go callback, Start it, and Stop/Close it
// on teardown.
package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/mjstrand/twindeck/internal/dlog"
	"github.com/mjstrand/twindeck/internal/engine"
)

var log = dlog.Named("device")

// Initialize must be called once before any Manager is configured, and
// Terminate once on final shutdown, per the PortAudio library contract.
func Initialize() error { return portaudio.Initialize() }

// Terminate releases PortAudio's global resources.
func Terminate() error { return portaudio.Terminate() }

// Manager owns the live PortAudio streams for one Engine.
type Manager struct {
	eng *engine.Engine

	outStream *portaudio.Stream
	inStream  *portaudio.Stream
}

// NewManager creates a Manager bound to eng. Call Configure to open
// streams.
func NewManager(eng *engine.Engine) *Manager {
	return &Manager{eng: eng}
}

// ChannelRequest is the caller-facing channel mapping passed to
// Configure, mirroring engine.ChannelConfig.
type ChannelRequest = engine.ChannelConfig

// Configure resolves a device by name (or the default), pauses and
// drops any existing streams, applies the channel mapping, clears the
// queue, builds a new output stream, and best-effort builds an input
// stream, per spec.md §4.8 "configure_device".
func (m *Manager) Configure(deviceName string, channels ChannelRequest) error {
	m.pauseAndDrop()

	outDevice, err := resolveOutputDevice(deviceName)
	if err != nil {
		log.Error("device resolve failed", "err", err)

		return engine.NewDeviceUnavailable(err)
	}

	m.eng.SetOutputChannels(outDevice.MaxOutputChannels)
	m.eng.SetChannelConfig(channels)

	outStream, err := m.openOutputStream(outDevice)
	if err != nil {
		log.Error("output stream build failed", "err", err)

		return engine.NewStreamBuildFailure(err)
	}

	m.outStream = outStream

	if err := m.outStream.Start(); err != nil {
		log.Error("output stream start failed", "err", err)

		return engine.NewStreamBuildFailure(err)
	}

	if outDevice.MaxInputChannels > 0 {
		inStream, err := m.openInputStream(outDevice)
		if err != nil {
			log.Warn("input stream unavailable, mic disabled", "err", err)
			m.eng.SetMicAvailable(false)
		} else if err := inStream.Start(); err != nil {
			log.Warn("input stream start failed, mic disabled", "err", err)
			m.eng.SetMicAvailable(false)
		} else {
			m.inStream = inStream
			m.eng.SetMicAvailable(true)
		}
	} else {
		m.eng.SetMicAvailable(false)
	}

	return nil
}

func (m *Manager) pauseAndDrop() {
	if m.outStream != nil {
		_ = m.outStream.Stop()
		_ = m.outStream.Close()
		m.outStream = nil
	}

	if m.inStream != nil {
		_ = m.inStream.Stop()
		_ = m.inStream.Close()
		m.inStream = nil
	}
}

// Close tears down both streams, per spec.md §5 ("pauses the stream
// before dropping to avoid live-callback races").
func (m *Manager) Close() {
	m.pauseAndDrop()
}

func resolveOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		if d.Name == name && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}

	return portaudio.DefaultOutputDevice()
}

func (m *Manager) openOutputStream(dev *portaudio.DeviceInfo) (*portaudio.Stream, error) {
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: dev.MaxOutputChannels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(engine.SampleRate),
		FramesPerBuffer: engine.FramesPerChunk,
	}

	return portaudio.OpenStream(params, m.outputCallback)
}

// outputCallback pops one sample at a time from the shared queue;
// underrun yields silence, per spec.md §4.9.
func (m *Manager) outputCallback(out []float32) {
	m.eng.PopSamples(out)
}

func (m *Manager) openInputStream(dev *portaudio.DeviceInfo) (*portaudio.Stream, error) {
	if dev.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("device %q has no input channels", dev.Name)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(engine.SampleRate),
		FramesPerBuffer: engine.FramesPerChunk,
	}

	return portaudio.OpenStream(params, m.inputCallback)
}

// inputCallback writes into the engine's mic ring buffer, per spec.md
// §4.5/§5.
func (m *Manager) inputCallback(in []float32) {
	m.eng.PushMicInput(in)
}
