// SPDX-License-Identifier: MIT
package cmd

import (
	"time"

	"chords/internal/config"
	"chords/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected by ParseArgs.
const (
	CommandMonitor = "monitor"
	CommandList    = "list"
	CommandAnalyze = "analyze"
	CommandNotes   = "notes"
)

// Options is the parsed command line: which command to run and the
// configuration it runs with. Command is empty when cobra already handled
// the invocation (help or --version).
type Options struct {
	Command string
	Config  *config.Config

	ConfigPath  string
	File        string // analyze
	Interactive bool   // list
	JSON        bool   // analyze
	Headless    bool   // monitor
}

// flagValues receives the raw flag values. They are copied into the
// configuration only when set on the command line, so file and
// environment values survive unset flags.
type flagValues struct {
	device          int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	windowSize    int
	overlap       float64
	minFrequency  float64
	maxFrequency  float64
	smoothingTime time.Duration
	gate          float64
	fullSpectrum  bool

	record    bool
	outputDir string

	webSocket     bool
	webSocketAddr string
	udp           bool
	udpAddr       string
	logNotes      bool

	verbose  bool
	logLevel string
}

// ParseArgs parses args (without the program name) and loads the
// configuration.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time musical note detection",
		Long:          "Detects the notes present in a live audio input and shows them in the terminal.",
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(options.ConfigPath)
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), &fv, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			options.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandMonitor
			return nil
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	}
	listCmd.Flags().BoolVarP(&options.Interactive, "interactive", "i", false,
		"Browse capture devices and pick a device and sample rate")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Detect notes in a WAV file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandAnalyze
			options.File = args[0]
		},
	}
	analyzeCmd.Flags().BoolVar(&options.JSON, "json", false, "Write the report as JSON")

	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Print the note table",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandNotes
		},
	}

	rootCmd.AddCommand(listCmd, analyzeCmd, notesCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&options.ConfigPath, "config", "f", "",
		"Configuration file (default: config.yaml or chords.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels,
		"Number of input channels to open; channel 0 is analysed")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", false,
		"Use the device's low input latency")

	// Analysis Configuration
	pf.IntVarP(&fv.windowSize, "window", "w", config.DefaultWindowSize,
		"Analysis window length in samples (power of 2)")
	pf.Float64Var(&fv.overlap, "overlap", config.DefaultOverlap,
		"Fraction of each window kept for the next pass, in [0, 1)")
	pf.Float64Var(&fv.minFrequency, "min-freq", config.DefaultMinFrequency,
		"Lowest peak frequency resolved to a note (Hz)")
	pf.Float64Var(&fv.maxFrequency, "max-freq", config.DefaultMaxFrequency,
		"Highest peak frequency resolved to a note (Hz)")
	pf.DurationVar(&fv.smoothingTime, "smoothing", config.DefaultSmoothingTime,
		"Spectrum smoothing time constant, 0 disables")
	pf.Float64VarP(&fv.gate, "gate", "g", config.DefaultGateThreshold,
		"Drop samples quieter than this absolute level, 0 disables")
	pf.BoolVar(&fv.fullSpectrum, "full-spectrum", false,
		"Use the full complex transform instead of the real one")

	// Debug Configuration
	pf.BoolVarP(&fv.verbose, "verbose", "v", false, "Show verbose output")
	pf.StringVar(&fv.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Monitor-only flags
	f := rootCmd.Flags()
	f.BoolVarP(&fv.record, "record", "r", false, "Record the input stream to WAV")
	f.StringVarP(&fv.outputDir, "output-dir", "o", config.DefaultRecordingDir, "Directory for recordings")
	f.BoolVar(&fv.webSocket, "websocket", false, "Serve detected notes over WebSocket")
	f.StringVar(&fv.webSocketAddr, "ws-addr", config.DefaultWebSocketAddress, "WebSocket listen address")
	f.BoolVar(&fv.udp, "udp", false, "Send detected notes as UDP packets")
	f.StringVar(&fv.udpAddr, "udp-addr", config.DefaultUDPTargetAddress, "UDP target address")
	f.BoolVar(&fv.logNotes, "log-notes", false, "Log every new note set")
	f.BoolVar(&options.Headless, "no-tui", false, "Run without the terminal UI and log notes instead")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// applyFlags copies every flag explicitly set on the command line into cfg.
func applyFlags(flags *pflag.FlagSet, fv *flagValues, cfg *config.Config) {
	set := func(name string, apply func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}

	set("device", func() { cfg.Audio.InputDevice = fv.device })
	set("channels", func() { cfg.Audio.InputChannels = fv.channels })
	set("sample-rate", func() { cfg.Audio.SampleRate = fv.sampleRate })
	set("frames-per-buffer", func() { cfg.Audio.FramesPerBuffer = fv.framesPerBuffer })
	set("low-latency", func() { cfg.Audio.LowLatency = fv.lowLatency })

	set("window", func() { cfg.Analysis.WindowSize = fv.windowSize })
	set("overlap", func() { cfg.Analysis.Overlap = fv.overlap })
	set("min-freq", func() { cfg.Analysis.MinFrequency = fv.minFrequency })
	set("max-freq", func() { cfg.Analysis.MaxFrequency = fv.maxFrequency })
	set("smoothing", func() { cfg.Analysis.SmoothingTime = fv.smoothingTime })
	set("gate", func() { cfg.Analysis.GateThreshold = fv.gate })
	set("full-spectrum", func() { cfg.Analysis.FullSpectrum = fv.fullSpectrum })

	set("record", func() { cfg.Recording.Enabled = fv.record })
	set("output-dir", func() { cfg.Recording.OutputDir = fv.outputDir })
	set("websocket", func() { cfg.Transport.WebSocketEnabled = fv.webSocket })
	set("ws-addr", func() { cfg.Transport.WebSocketAddress = fv.webSocketAddr })
	set("udp", func() { cfg.Transport.UDPEnabled = fv.udp })
	set("udp-addr", func() { cfg.Transport.UDPTargetAddress = fv.udpAddr })
	set("log-notes", func() { cfg.Transport.LogNotes = fv.logNotes })

	set("verbose", func() { cfg.Debug = fv.verbose })
	set("log-level", func() { cfg.LogLevel = fv.logLevel })
}
