// SPDX-License-Identifier: MIT
package config

// DeviceID returns the input device index.
func (c *Config) DeviceID() int {
	return c.Audio.InputDevice
}

// Channels returns the number of captured input channels.
func (c *Config) Channels() int {
	return c.Audio.InputChannels
}

// FramesPerBuffer returns the host block size in frames.
func (c *Config) FramesPerBuffer() int {
	return c.Audio.FramesPerBuffer
}

// SampleRate returns the stream sample rate in Hz.
func (c *Config) SampleRate() float64 {
	return c.Audio.SampleRate
}

// LowLatency reports whether the device's low input latency is requested.
func (c *Config) LowLatency() bool {
	return c.Audio.LowLatency
}

// RecordInputStream reports whether the input stream is recorded to WAV.
func (c *Config) RecordInputStream() bool {
	return c.Recording.Enabled
}
