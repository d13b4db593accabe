// SPDX-License-Identifier: MIT
/*
Package audio connects the note detector to its hosts:
- Live capture from a PortAudio input stream
- Offline analysis of WAV files
- WAV recording of the live input through a writer goroutine

Thread Safety:
- The PortAudio callback is the only caller of the detector's Write path
- Buffers used by the callback are allocated before the stream starts
- Gate and recording state are atomics so the UI can change them live
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"chords/internal/analysis"
	"chords/internal/config"
	"chords/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Engine owns the live input stream and feeds channel 0 of every block to
// the detector.
type Engine struct {
	// Core configuration and state.
	config   *config.Config
	detector *analysis.Detector
	channels int

	// Audio input handling.
	inputBuffer  []int32
	monoBuffer   []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Gate state; the effective threshold lives in the detector.
	gateEnabled   atomic.Bool
	gateThreshold atomic.Uint64 // math.Float64bits

	// Diagnostics read by the UI.
	callbacks atomic.Uint64
	lastBlock atomic.Int64

	// Recording. recMu serialises StartRecording and StopRecording; the
	// callback only loads the pointer.
	recMu    sync.Mutex
	recorder atomic.Pointer[recorder]
}

// NewEngine resolves the configured input device and prepares every buffer
// the callback needs. PortAudio must be initialised.
func NewEngine(cfg *config.Config, detector *analysis.Detector) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.DeviceID())
	if err != nil {
		return nil, err
	}
	if inputDevice.MaxInputChannels < cfg.Channels() {
		return nil, fmt.Errorf("device %q has %d input channels, %d requested",
			inputDevice.Name, inputDevice.MaxInputChannels, cfg.Channels())
	}

	e, err := newEngine(cfg, detector)
	if err != nil {
		return nil, err
	}
	e.inputDevice = inputDevice
	if cfg.LowLatency() {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	log.Infof("Audio: input %q, %d ch, %.0f Hz, %d frames/buffer, latency %s",
		inputDevice.Name, cfg.Channels(), cfg.SampleRate(), cfg.FramesPerBuffer(), e.inputLatency)
	return e, nil
}

// newEngine builds an engine without touching PortAudio.
func newEngine(cfg *config.Config, detector *analysis.Detector) (*Engine, error) {
	if detector == nil {
		return nil, errors.New("audio: detector cannot be nil")
	}
	if detector.SampleRate() != cfg.SampleRate() {
		return nil, fmt.Errorf("audio: detector runs at %.0f Hz but the stream at %.0f Hz",
			detector.SampleRate(), cfg.SampleRate())
	}

	channels := max(cfg.Channels(), 1)
	frames := cfg.FramesPerBuffer()

	e := &Engine{
		config:      cfg,
		detector:    detector,
		channels:    channels,
		inputBuffer: make([]int32, frames*channels),
		monoBuffer:  make([]int32, frames),
	}
	e.SetGateThreshold(detector.Gate())
	if detector.Gate() > 0 {
		e.EnableGate()
	}
	return e, nil
}

// Detector returns the detector fed by the engine.
func (e *Engine) Detector() *analysis.Detector {
	return e.detector
}

// DeviceName returns the name of the input device, or "" when the engine
// was built without one.
func (e *Engine) DeviceName() string {
	if e.inputDevice == nil {
		return ""
	}
	return e.inputDevice.Name
}

// StartInputStream opens and starts the PortAudio input stream.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.FramesPerBuffer(),
		SampleRate:      e.config.SampleRate(),
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	info := stream.Info()
	log.Infof("Audio: stream started (sample rate %.0f Hz, input latency %s)", info.SampleRate, info.InputLatency)
	return nil
}

// StopInputStream stops and closes the input stream if it is running.
func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	log.Debugf("Audio: stream stopped after %d callbacks", e.callbacks.Load())
	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations or I/O; recording hands blocks to a writer goroutine
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	block := e.inputBuffer[:n]

	e.callbacks.Add(1)
	e.lastBlock.Store(int64(n / e.channels))

	e.processBuffer(block)

	if rec := e.recorder.Load(); rec != nil {
		rec.push(block)
	}
}

// processBuffer extracts channel 0 of an interleaved block and hands it to
// the detector.
func (e *Engine) processBuffer(buffer []int32) {
	if e.channels == 1 {
		e.detector.Process(buffer)
		return
	}

	frames := min(len(buffer)/e.channels, len(e.monoBuffer))
	for i := range frames {
		e.monoBuffer[i] = buffer[i*e.channels]
	}
	e.detector.Process(e.monoBuffer[:frames])
}

// Callbacks returns the number of host blocks processed.
func (e *Engine) Callbacks() uint64 {
	return e.callbacks.Load()
}

// LastBlockSize returns the frame count of the most recent host block.
func (e *Engine) LastBlockSize() int {
	return int(e.lastBlock.Load())
}

// Close stops recording and the input stream.
func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}
	return e.StopInputStream()
}
