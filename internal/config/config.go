// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the note detection engine.
const (
	// Audio input
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultChannels        = 1           // Mono; analysis reads channel 0

	// Analysis
	DefaultWindowSize    = 1024    // Samples per analysis pass
	DefaultOverlap       = 0.0     // Clear the buffer after each pass
	DefaultMinFrequency  = 20.0    // Hz
	DefaultMaxFrequency  = 20000.0 // Hz
	DefaultSmoothingTime = 0       // Smoothing disabled
	DefaultGateThreshold = 0.0     // Gate open

	// Recording
	DefaultRecordingDir = "./recordings"
	DefaultFormat       = "wav"
	DefaultBitDepth     = 16

	// Presentation
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultPublishInterval  = 33 * time.Millisecond // ~30 Hz

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxChannels     = 32
	MaxWindowSize   = 65536

	// Error handling configuration
	DefaultMaxConsecutiveWriteFailures = 5  // Max failures before recording stops
	DefaultRecordingQueueBlocks        = 64 // Host blocks buffered for the recording writer
)

// Default returns the built-in configuration used when no file is found.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
		},
		Analysis: AnalysisConfig{
			WindowSize:    DefaultWindowSize,
			Overlap:       DefaultOverlap,
			MinFrequency:  DefaultMinFrequency,
			MaxFrequency:  DefaultMaxFrequency,
			SmoothingTime: DefaultSmoothingTime,
			GateThreshold: DefaultGateThreshold,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			Format:    DefaultFormat,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			PublishInterval:  DefaultPublishInterval,
		},
	}
}
