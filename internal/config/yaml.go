// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chords/internal/log"
	"chords/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Shorthand for log_level: debug.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn or error.
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds settings for the live input stream.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Host block size; independent of the analysis window.
	LowLatency      bool    `yaml:"low_latency"`       // Use the device's low input latency.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured; channel 0 is analysed.
}

// AnalysisConfig holds the note detector settings.
type AnalysisConfig struct {
	WindowSize    int           `yaml:"window_size"`    // Samples per pass, power of two.
	Overlap       float64       `yaml:"overlap"`        // Fraction of a window reused by the next pass, [0, 1).
	MinFrequency  float64       `yaml:"min_frequency"`  // Lowest peak frequency named, Hz.
	MaxFrequency  float64       `yaml:"max_frequency"`  // Highest peak frequency named, Hz.
	SmoothingTime time.Duration `yaml:"smoothing_time"` // Magnitude smoothing time constant; 0 disables.
	GateThreshold float64       `yaml:"gate_threshold"` // Absolute sample gate in [0, 1]; 0 disables.
	FullSpectrum  bool          `yaml:"full_spectrum"`  // Use the N-point complex transform.
}

// RecordingConfig holds settings for recording the input stream to WAV.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`    // Only "wav" is supported.
	BitDepth  int    `yaml:"bit_depth"` // 16, 24 or 32.
}

// TransportConfig holds settings for publishing detected notes.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"` // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // host:port.
	LogNotes         bool          `yaml:"log_notes"`          // Log every new note set at info level.
	PublishInterval  time.Duration `yaml:"publish_interval"`   // Mailbox polling interval.
}

// defaultPaths are searched in order when LoadConfig is given no path.
var defaultPaths = []string{"config.yaml", "chords.yaml"}

// LoadConfig loads configuration from the YAML file at path. With an empty
// path it searches defaultPaths and falls back to Default when none exists.
// Environment overrides are applied after the file, then the result is
// validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range defaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		log.Debugf("Config: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every section and returns the first problem found,
// wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, v ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		return invalid("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	// Audio
	a := c.Audio
	if a.InputDevice < MinDeviceID {
		return invalid("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate must be in [%d, %d], got %.0f", MinSampleRate, MaxSampleRate, a.SampleRate)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, a.FramesPerBuffer)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		return invalid("audio.input_channels must be in [1, %d], got %d", MaxChannels, a.InputChannels)
	}

	// Analysis
	an := c.Analysis
	if !bitint.IsPowerOfTwo(an.WindowSize) || an.WindowSize > MaxWindowSize {
		if an.WindowSize > 1 && an.WindowSize <= MaxWindowSize {
			return invalid("analysis.window_size must be a power of 2, got %d (try %d)",
				an.WindowSize, bitint.NearestPowerOfTwo(an.WindowSize))
		}
		return invalid("analysis.window_size must be a power of 2 up to %d, got %d", MaxWindowSize, an.WindowSize)
	}
	if an.Overlap < 0 || an.Overlap >= 1 {
		return invalid("analysis.overlap must be in [0, 1), got %g", an.Overlap)
	}
	if an.MinFrequency < 0 || an.MaxFrequency <= an.MinFrequency {
		return invalid("analysis frequency range [%g, %g] Hz is empty", an.MinFrequency, an.MaxFrequency)
	}
	if an.SmoothingTime < 0 {
		return invalid("analysis.smoothing_time must not be negative, got %s", an.SmoothingTime)
	}
	if an.GateThreshold < 0 || an.GateThreshold > 1 {
		return invalid("analysis.gate_threshold must be in [0, 1], got %g", an.GateThreshold)
	}

	// Recording
	r := c.Recording
	if !strings.EqualFold(r.Format, "wav") {
		return invalid("recording.format %q is not supported (wav only)", r.Format)
	}
	switch r.BitDepth {
	case 16, 24, 32:
	default:
		return invalid("recording.bit_depth must be 16, 24 or 32, got %d", r.BitDepth)
	}
	if r.Enabled && r.OutputDir == "" {
		return invalid("recording.output_dir must be set when recording is enabled")
	}

	// Transport
	t := c.Transport
	if t.UDPEnabled {
		if t.UDPTargetAddress == "" {
			return invalid("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return invalid("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress)
		}
	}
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		return invalid("transport.websocket_address must be set when the WebSocket server is enabled")
	}
	if t.PublishInterval <= 0 {
		return invalid("transport.publish_interval must be positive, got %s", t.PublishInterval)
	}

	return nil
}

// EffectiveLogLevel resolves Debug and LogLevel into a level.
func (c *Config) EffectiveLogLevel() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	envBool("ENV_DEBUG", &c.Debug)
	envString("ENV_LOG_LEVEL", &c.LogLevel)

	// ENV_AUDIO_{...}
	envInt("ENV_AUDIO_INPUT_DEVICE", &c.Audio.InputDevice)
	envFloat("ENV_AUDIO_SAMPLE_RATE", &c.Audio.SampleRate)
	envInt("ENV_AUDIO_FRAMES_PER_BUFFER", &c.Audio.FramesPerBuffer)

	// ENV_ANALYSIS_{...}
	envInt("ENV_ANALYSIS_WINDOW_SIZE", &c.Analysis.WindowSize)
	envFloat("ENV_ANALYSIS_OVERLAP", &c.Analysis.Overlap)
	envFloat("ENV_ANALYSIS_GATE_THRESHOLD", &c.Analysis.GateThreshold)
	envDuration("ENV_ANALYSIS_SMOOTHING_TIME", &c.Analysis.SmoothingTime)

	// ENV_UDP_{...} and ENV_WS_{...}
	envBool("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	envBool("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
	envDuration("ENV_PUBLISH_INTERVAL", &c.Transport.PublishInterval)
}

func envString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		log.Infof("Config: overriding %s from env: %s", key, val)
	}
}

func envBool(key string, dst *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warnf("Config: ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = b
	log.Infof("Config: overriding %s from env: %v", key, b)
}

func envInt(key string, dst *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Warnf("Config: ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = n
	log.Infof("Config: overriding %s from env: %d", key, n)
}

func envFloat(key string, dst *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warnf("Config: ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = f
	log.Infof("Config: overriding %s from env: %g", key, f)
}

func envDuration(key string, dst *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Warnf("Config: ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = d
	log.Infof("Config: overriding %s from env: %s", key, d)
}
