// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"chords/internal/analysis"
	"chords/internal/audio"
	"chords/internal/config"
	"chords/internal/log"
	"chords/internal/notes"
	"chords/internal/transport"
	"chords/internal/transport/udp"
	"chords/internal/tui"
	"chords/pkg/build"
)

// journalLines is how much diagnostic log the monitor keeps on screen.
const journalLines = 500

// DetectorOptions maps the analysis section of cfg onto detector options.
func DetectorOptions(cfg *config.Config, mailbox *analysis.Mailbox) analysis.Options {
	a := cfg.Analysis
	return analysis.Options{
		SampleRate:    cfg.SampleRate(),
		WindowSize:    a.WindowSize,
		Overlap:       a.Overlap,
		MinFrequency:  a.MinFrequency,
		MaxFrequency:  a.MaxFrequency,
		SmoothingTime: a.SmoothingTime,
		GateThreshold: a.GateThreshold,
		FullSpectrum:  a.FullSpectrum,
		Mailbox:       mailbox,
	}
}

// Execute runs the command selected by ParseArgs.
func Execute(opts *Options, stdout io.Writer) error {
	switch opts.Command {
	case "":
		return nil
	case CommandList:
		return ListDevices(stdout, opts.Interactive)
	case CommandAnalyze:
		return AnalyzeFile(stdout, opts.File, opts.Config, opts.JSON)
	case CommandNotes:
		return PrintNotes(stdout)
	case CommandMonitor:
		return RunMonitor(opts.Config, opts.Headless)
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}

// ListDevices prints the host's audio devices, or with interactive set
// lets the user pick one and prints the matching flags.
func ListDevices(w io.Writer, interactive bool) error {
	devices, err := audio.GetDevices()
	if err != nil {
		return err
	}
	if !interactive {
		audio.ListDevices(w, devices)
		return nil
	}

	sel, err := tui.RunPicker(devices)
	if err != nil {
		return err
	}
	if sel == nil {
		return nil
	}
	fmt.Fprintf(w, "Selected %s\n\n  %s --device %d --sample-rate %.0f\n",
		sel.Device.Name, build.GetBuildFlags().Name, sel.Device.ID, sel.SampleRate)
	return nil
}

// PrintNotes writes the note table.
func PrintNotes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Note\tFrequency (Hz)\t")
	for _, n := range notes.Table() {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", n.Name, n.Frequency)
	}
	return tw.Flush()
}

type segmentJSON struct {
	Start float64  `json:"start"` // Seconds
	Notes []string `json:"notes"`
}

type reportJSON struct {
	File       string        `json:"file"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth"`
	Duration   float64       `json:"duration"`
	WindowSize int           `json:"window_size"`
	Segments   []segmentJSON `json:"segments"`
}

// AnalyzeFile runs the detector over a WAV file and writes one line per
// pass, or a JSON report.
func AnalyzeFile(w io.Writer, path string, cfg *config.Config, asJSON bool) error {
	opts := DetectorOptions(cfg, nil)
	report, err := audio.AnalyzeFile(path, opts)
	if err != nil {
		return err
	}

	if asJSON {
		out := reportJSON{
			File:       path,
			SampleRate: report.SampleRate,
			Channels:   report.Channels,
			BitDepth:   report.BitDepth,
			Duration:   report.Duration.Seconds(),
			WindowSize: opts.WindowSize,
			Segments:   make([]segmentJSON, len(report.Segments)),
		}
		for i, s := range report.Segments {
			names := s.Notes
			if names == nil {
				names = []string{}
			}
			out.Segments[i] = segmentJSON{Start: s.Start.Seconds(), Notes: names}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "%s: %d Hz, %d ch, %d-bit, %s\n",
		path, report.SampleRate, report.Channels, report.BitDepth, report.Duration.Round(time.Millisecond))
	for _, s := range report.Segments {
		fmt.Fprintf(w, "%10.3fs  %s\n", s.Start.Seconds(), transport.FormatNotes(s.Notes))
	}
	if len(report.Segments) == 0 {
		fmt.Fprintf(w, "File is shorter than one %d-sample window.\n", opts.WindowSize)
	}
	return nil
}

// newTransports builds the presentation transports enabled in cfg.
func newTransports(cfg *config.Config, headless bool) ([]transport.Transport, error) {
	var transports []transport.Transport
	closeAll := func() {
		for _, t := range transports {
			_ = t.Close()
		}
	}

	t := cfg.Transport
	if t.LogNotes || headless {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if t.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(t.WebSocketAddress)
		if err != nil {
			closeAll()
			return nil, err
		}
		transports = append(transports, ws)
	}
	if t.UDPEnabled {
		u, err := udp.NewTransport(t.UDPTargetAddress)
		if err != nil {
			closeAll()
			return nil, err
		}
		log.Infof("Transport: UDP sending to %s", t.UDPTargetAddress)
		transports = append(transports, u)
	}
	return transports, nil
}

// RunMonitor captures the configured input device and shows detected
// notes until the user quits or the process is signalled.
func RunMonitor(cfg *config.Config, headless bool) (err error) {
	journal := log.NewJournal(journalLines)
	if !headless {
		// The terminal UI owns the screen; log lines go to the journal pane.
		prev := log.Writer()
		log.SetOutput(journal)
		defer log.SetOutput(prev)
	}
	log.Infof("Starting %s", build.GetBuildFlags())

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	mailbox := analysis.NewMailbox(notes.Len())
	detector, err := analysis.NewDetector(DetectorOptions(cfg, mailbox))
	if err != nil {
		return err
	}
	defer detector.Close()

	engine, err := audio.NewEngine(cfg, detector)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, engine.Close())
	}()

	transports, err := newTransports(cfg, headless)
	if err != nil {
		return err
	}
	if len(transports) > 0 {
		publisher, err := transport.NewPublisher(cfg.Transport.PublishInterval, mailbox, transports...)
		if err != nil {
			return err
		}
		publisher.Start()
		defer publisher.Close()
	}

	// CRITICAL: Start of real-time audio processing
	if err := engine.StartInputStream(); err != nil {
		return err
	}

	recordingName := func(t time.Time) string {
		return audio.RecordingFilename(cfg.Recording.OutputDir, t)
	}
	if cfg.RecordInputStream() {
		if err := engine.StartRecording(recordingName(time.Now())); err != nil {
			return err
		}
	}

	if headless {
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		<-done
		log.Infof("Shutting down after %d passes", detector.Passes())
		return nil
	}

	return tui.RunMonitor(tui.MonitorOptions{
		Notes:         mailbox,
		Engine:        engine,
		Journal:       journal,
		Title:         build.GetBuildFlags().Name,
		Device:        engine.DeviceName(),
		SampleRate:    cfg.SampleRate(),
		BlockSize:     cfg.FramesPerBuffer(),
		WindowSize:    detector.WindowSize(),
		Hop:           detector.Hop(),
		RecordingName: recordingName,
		Refresh:       cfg.Transport.PublishInterval,
	})
}
