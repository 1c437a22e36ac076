// Package engine implements the engine driver (C8) of spec.md §4.8: it
// owns the shared state under one mutex, runs the processing task, and
// exposes the public control-path operations.
package engine

import (
	"runtime"
	"sync"
	"time"

	"github.com/mjstrand/twindeck/internal/deck"
	"github.com/mjstrand/twindeck/internal/dlog"
	"github.com/mjstrand/twindeck/internal/meter"
	"github.com/mjstrand/twindeck/internal/mic"
	"github.com/mjstrand/twindeck/internal/mixer"
	"github.com/mjstrand/twindeck/internal/router"
)

var log = dlog.Named("engine")

// FramesPerChunk is the fixed chunk size named throughout spec.md §2.
const FramesPerChunk = 2048

// SampleRate is the fixed engine rate named in spec.md §6.
const SampleRate = 44100

// StateUpdateHz is the cadence at which state snapshots are dispatched.
const StateUpdateHz = 30

// defaultHighWaterMs is the sample queue's fill threshold, per spec.md
// §2's "~200 ms water-mark" (step 3 of §4.8 sets the target queue at
// half that, ~100 ms; the processing task fills the queue up to twice
// the target, i.e. up to the high-water mark).
const defaultHighWaterMs = 200

// UpdateCallback receives state snapshots, per spec.md §6.
type UpdateCallback func(Update)

// Engine owns the shared mixing-graph state and the processing task.
type Engine struct {
	mu sync.Mutex

	decks     [2]*deck.Deck
	crossfade mixer.Crossfade
	chanCfg   router.Config
	mic       *mic.State
	meters    [2]*meter.State

	masterTempo float64

	queue          []float32
	targetQueueLen int
	outputChannels int
	highWaterMs    int

	running      bool
	micAvailable bool
	updateReason string

	onUpdate UpdateCallback
	wg       sync.WaitGroup
}

// New constructs an Engine with two empty decks.
func New() *Engine {
	e := &Engine{
		masterTempo: 120,
		meters:      [2]*meter.State{meter.New(), meter.New()},
		mic:         mic.New(SampleRate),
		chanCfg: router.Config{
			OutputChannels: 2,
			MainL:          0,
			MainR:          1,
			CueL:           router.Disabled,
			CueR:           router.Disabled,
		},
		outputChannels: 2,
		highWaterMs:    defaultHighWaterMs,
	}

	e.decks[0] = deck.New(SampleRate)
	e.decks[1] = deck.New(SampleRate)
	e.recomputeTargetQueueLocked()

	return e
}

func msToSamples(ms, channels int) int {
	return ms * SampleRate / 1000 * channels
}

// recomputeTargetQueueLocked derives the processing task's fill target
// from the configured high-water mark and the current channel count.
// The loop fills to 2x this target, so the target is half the
// high-water mark. Caller must hold e.mu (or call before any other
// goroutine can observe e).
func (e *Engine) recomputeTargetQueueLocked() {
	e.targetQueueLen = msToSamples(e.highWaterMs/2, e.outputChannels)
}

// SetHighWaterMs updates the sample queue's fill threshold in
// milliseconds, per spec.md §2/§4.8, and re-derives the processing
// task's fill target. Values below 2ms are clamped to 2ms so the
// target never rounds to zero.
func (e *Engine) SetHighWaterMs(ms int) {
	if ms < 2 {
		ms = 2
	}

	e.mu.Lock()
	e.highWaterMs = ms
	e.recomputeTargetQueueLocked()
	e.mu.Unlock()
}

// normalizeDeck implements spec.md §9's legacy rule: any index other
// than A is treated as B.
func normalizeDeck(d mixer.Deck) mixer.Deck {
	if d == mixer.A {
		return mixer.A
	}

	return mixer.B
}

// SetUpdateCallback installs the callback invoked at the state-update
// cadence and on transitions.
func (e *Engine) SetUpdateCallback(cb UpdateCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onUpdate = cb
}

// Start launches the dedicated processing task, per spec.md §4.8/§5.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}

	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)

	go e.runProcessingTask()
}

// Close stops the processing task, per spec.md §4.8 "close". The
// processing task observes running=false at the next iteration
// boundary, per spec.md §5. Device streams are owned by
// device.Manager and are not touched here; Manager.Close drops them.
func (e *Engine) Close() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	e.wg.Wait()

	log.Info("engine closed")
}

func (e *Engine) runProcessingTask() {
	defer e.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	chunkPeriod := time.Duration(float64(FramesPerChunk) / float64(SampleRate) * float64(time.Second))
	sleepDuration := time.Duration(0.8 * float64(chunkPeriod))

	updateInterval := time.Second / StateUpdateHz
	lastUpdate := time.Now().Add(-updateInterval)

	for {
		e.mu.Lock()
		running := e.running
		e.mu.Unlock()

		if !running {
			return
		}

		e.mu.Lock()
		queueLen := len(e.queue)
		target := e.targetQueueLen
		e.mu.Unlock()

		if queueLen < 2*target {
			e.mu.Lock()
			chunk := e.processChunkLocked()
			e.queue = append(e.queue, chunk...)
			e.mu.Unlock()
		}

		if now := time.Now(); now.Sub(lastUpdate) >= updateInterval {
			lastUpdate = now
			e.dispatchUpdate("periodic")
		}

		time.Sleep(sleepDuration)
	}
}

// PopSamples drains up to len(out) samples from the queue for the
// output device callback, per spec.md §4.9. Underrun zero-fills the
// missing tail.
func (e *Engine) PopSamples(out []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(out)
	avail := len(e.queue)

	if avail >= n {
		copy(out, e.queue[:n])
		e.queue = append(e.queue[:0], e.queue[n:]...)

		return
	}

	copy(out, e.queue[:avail])
	for i := avail; i < n; i++ {
		out[i] = 0
	}

	e.queue = e.queue[:0]
}

// OutputChannels returns the device's current channel count.
func (e *Engine) OutputChannels() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.outputChannels
}

// SetOutputChannels updates the device channel count and the target
// queue high-water mark, and clears the queue, per spec.md §4.8
// "configure_device" ("point-in-time destructive").
func (e *Engine) SetOutputChannels(n int) {
	e.mu.Lock()
	e.outputChannels = n
	e.chanCfg.OutputChannels = n
	e.chanCfg.Clamp()
	e.recomputeTargetQueueLocked()
	e.queue = e.queue[:0]
	e.mu.Unlock()
}

// SetMicAvailable records whether an input stream was successfully
// built, per spec.md §4.9 "best-effort" input stream.
func (e *Engine) SetMicAvailable(available bool) {
	e.mu.Lock()
	e.micAvailable = available
	e.mu.Unlock()
}

// PushMicInput is the mic input callback's contribution, per spec.md
// §4.5/§5: single-writer ring buffer append under the shared mutex.
func (e *Engine) PushMicInput(monoIn []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mic.Capture(monoIn)
}
