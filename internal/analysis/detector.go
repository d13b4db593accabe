// SPDX-License-Identifier: MIT
/*
Package analysis implements the note detection pipeline that runs inside
the audio callback:

	samples → Hann taper → forward FFT → magnitude spectrum
	        → local maxima → prominence filter → note names → Mailbox

Every buffer a pass touches is allocated once in NewDetector. Write and
Process never allocate, never block and never log; the only hand-off to
other goroutines is the Mailbox, which the audio thread writes with a
non-blocking try-lock.
*/
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"chords/internal/fft"
	"chords/internal/log"
	"chords/internal/notes"
	"chords/pkg/bitint"
)

var (
	ErrInvalidWindowSize = errors.New("analysis: window size must be a positive power of 2")
	ErrInvalidSampleRate = errors.New("analysis: sample rate must be positive")
	ErrInvalidOverlap    = errors.New("analysis: overlap must be in [0, 1)")
)

// State is the detector's position in its accumulate/analyze cycle.
type State int32

const (
	// Accumulating means the detector is collecting samples toward the next
	// full window.
	Accumulating State = iota
	// Analyzing means a pass over a full window is in progress.
	Analyzing
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "ACCUMULATING"
	case Analyzing:
		return "ANALYZING"
	default:
		return "UNKNOWN"
	}
}

// Options configures a Detector. Zero values select the defaults noted on
// each field.
type Options struct {
	SampleRate float64 // Required, in Hz.
	WindowSize int     // Power of two. Default 1024.

	// Overlap is the fraction of a window carried into the next one, in
	// [0, 1). 0 clears the buffer after every pass.
	Overlap float64

	MinFrequency float64 // Lowest peak frequency named. Default 20 Hz.
	MaxFrequency float64 // Highest peak frequency named. Default 20 kHz.

	// SmoothingTime is the time constant of exponential magnitude smoothing
	// across passes. 0 disables smoothing.
	SmoothingTime time.Duration

	// GateThreshold drops incoming samples whose absolute value is below it.
	// 0 disables the gate.
	GateThreshold float64

	// FullSpectrum selects the N-point complex transform instead of the
	// N/2+1-point real transform. Both produce the same notes.
	FullSpectrum bool

	// Table overrides the note table. Default notes.Table().
	Table []notes.Note

	// Mailbox receives every pass's notes. A new one is created when nil.
	Mailbox *Mailbox

	// OnPass, when set, is called synchronously at the end of each pass on
	// the audio thread. The Pass views are only valid during the call.
	OnPass func(Pass)
}

// Default analysis settings.
const (
	DefaultWindowSize   = 1024
	DefaultMinFrequency = 20.0
	DefaultMaxFrequency = 20000.0
)

// Pass describes one completed analysis pass. The slices are views into
// the detector's workspace and are overwritten by the next pass.
type Pass struct {
	SampleCount         int
	FrequencyResolution float64
	NyquistLimit        int
	MagnitudeThreshold  float64
	ProminenceThreshold float64

	Spectrum   []Bin
	Candidates []Bin
	Peaks      []Bin
	Notes      []string
}

// Pre-allocated buffers for a pass.
type workspace struct {
	samples    []float64    // Rolling sample buffer, capacity N.
	windowed   []float64    // Tapered copy of samples, length N.
	coeffs     []complex128 // Transform output.
	spectrum   []Bin        // Capacity N/2.
	candidates []Bin        // Capacity N/2.
	peaks      []Bin        // Capacity N/2.
	notes      []string     // Capacity len(table).
	normalized []float64    // Process conversion scratch, capacity N.
}

// Detector accumulates samples into fixed-size windows and runs the note
// detection pipeline on each full window.
//
// Write, Process and Reset must be called from a single goroutine (the
// audio callback). State, Gate, SetGate and the Mailbox are safe to use
// from any goroutine.
type Detector struct {
	sampleRate float64
	size       int
	hop        int

	taper     *Taper
	transform fft.Transform
	resolver  *Resolver
	smoother  *smoother
	mailbox   *Mailbox
	onPass    func(Pass)

	state  atomic.Int32
	gate   atomic.Uint64 // math.Float64bits of the gate threshold.
	passes atomic.Uint64

	ws workspace
}

// Compile-time checks for interface implementations.
var _ AudioProcessor = (*Detector)(nil)
var _ ClosableProcessor = (*Detector)(nil)

// NewDetector validates opts and allocates every buffer the pipeline needs.
func NewDetector(opts Options) (*Detector, error) {
	if opts.WindowSize == 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.MinFrequency == 0 && opts.MaxFrequency == 0 {
		opts.MinFrequency, opts.MaxFrequency = DefaultMinFrequency, DefaultMaxFrequency
	}
	if opts.Table == nil {
		opts.Table = notes.Table()
	}

	if !bitint.IsPowerOfTwo(opts.WindowSize) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidWindowSize, opts.WindowSize)
	}
	if opts.SampleRate <= 0 || math.IsNaN(opts.SampleRate) {
		return nil, fmt.Errorf("%w, got %f", ErrInvalidSampleRate, opts.SampleRate)
	}
	if opts.Overlap < 0 || opts.Overlap >= 1 {
		return nil, fmt.Errorf("%w, got %f", ErrInvalidOverlap, opts.Overlap)
	}

	resolver, err := NewResolver(opts.Table, opts.MinFrequency, opts.MaxFrequency)
	if err != nil {
		return nil, err
	}

	var transform fft.Transform
	if opts.FullSpectrum {
		transform, err = fft.NewComplexTransform(opts.WindowSize)
	} else {
		transform, err = fft.NewRealTransform(opts.WindowSize)
	}
	if err != nil {
		return nil, fmt.Errorf("analysis: planning transform: %w", err)
	}

	n := opts.WindowSize
	hop := HopSize(n, opts.Overlap)

	var alpha float64
	if opts.SmoothingTime > 0 {
		hopDuration := float64(hop) / opts.SampleRate
		alpha = math.Exp(-hopDuration / opts.SmoothingTime.Seconds())
	}

	mailbox := opts.Mailbox
	if mailbox == nil {
		mailbox = NewMailbox(len(opts.Table))
	}

	half := NyquistLimit(n)
	d := &Detector{
		sampleRate: opts.SampleRate,
		size:       n,
		hop:        hop,
		taper:      NewTaper(n),
		transform:  transform,
		resolver:   resolver,
		smoother:   newSmoother(alpha, half),
		mailbox:    mailbox,
		onPass:     opts.OnPass,
		ws: workspace{
			samples:    make([]float64, 0, n),
			windowed:   make([]float64, n),
			coeffs:     make([]complex128, transform.Bins()),
			spectrum:   make([]Bin, 0, half),
			candidates: make([]Bin, 0, half),
			peaks:      make([]Bin, 0, half),
			notes:      make([]string, 0, len(opts.Table)),
			normalized: make([]float64, n),
		},
	}
	d.SetGate(opts.GateThreshold)

	log.Debugf("Analysis: detector ready (window %d, hop %d, %.1f Hz, %.2f Hz/bin, range %.0f-%.0f Hz)",
		n, hop, opts.SampleRate, FrequencyResolution(opts.SampleRate, n), opts.MinFrequency, opts.MaxFrequency)

	return d, nil
}

// HopSize returns the number of new samples between the starts of two
// consecutive windows for the given overlap fraction. It is at least 1.
func HopSize(windowSize int, overlap float64) int {
	hop := windowSize - int(math.Round(float64(windowSize)*overlap))
	return max(hop, 1)
}

// Write feeds samples into the rolling buffer. Each time the buffer holds
// a full window a pass runs synchronously before Write continues with the
// remaining samples. Samples quieter than the gate threshold are dropped.
func (d *Detector) Write(samples []float64) {
	gate := d.Gate()
	for len(samples) > 0 {
		room := d.size - len(d.ws.samples)
		if gate <= 0 {
			n := min(room, len(samples))
			d.ws.samples = append(d.ws.samples, samples[:n]...)
			samples = samples[n:]
		} else {
			for len(samples) > 0 && len(d.ws.samples) < d.size {
				s := samples[0]
				samples = samples[1:]
				if math.Abs(s) < gate {
					continue
				}
				d.ws.samples = append(d.ws.samples, s)
			}
		}

		if len(d.ws.samples) == d.size {
			d.runPass()
		}
	}
}

// Process converts mono int32 host samples to [-1, 1) and
// writes them. It implements AudioProcessor.
func (d *Detector) Process(inputBuffer []int32) {
	const normFactor = 1.0 / float64(0x80000000)
	for len(inputBuffer) > 0 {
		n := min(len(inputBuffer), len(d.ws.normalized))
		for i, s := range inputBuffer[:n] {
			d.ws.normalized[i] = float64(s) * normFactor
		}
		d.Write(d.ws.normalized[:n])
		inputBuffer = inputBuffer[n:]
	}
}

// runPass analyzes the full buffer and then clears it, or keeps the last
// N-hop samples when overlap is configured.
func (d *Detector) runPass() {
	_, err := d.Analyze(d.ws.samples)
	if err != nil && !errors.Is(err, ErrDegenerateWindow) {
		panic(fmt.Errorf("analysis: pass failed: %w", err))
	}

	keep := d.size - d.hop
	if keep <= 0 {
		d.ws.samples = d.ws.samples[:0]
		return
	}
	copy(d.ws.samples, d.ws.samples[d.hop:])
	d.ws.samples = d.ws.samples[:keep]
}

// Analyze runs one pass over a window of exactly WindowSize samples,
// publishes the resulting notes and calls the pass hook. A window of one
// sample or fewer returns ErrDegenerateWindow and publishes nothing.
//
// The returned Pass shares the detector's workspace.
func (d *Detector) Analyze(samples []float64) (Pass, error) {
	d.state.Store(int32(Analyzing))
	defer d.state.Store(int32(Accumulating))

	ws := &d.ws
	if err := d.taper.Apply(ws.windowed, samples); err != nil {
		return Pass{}, err
	}
	if err := d.transform.Forward(ws.coeffs, ws.windowed); err != nil {
		return Pass{}, err
	}

	count := len(samples)
	ws.spectrum = BuildSpectrum(ws.spectrum, ws.coeffs, count, d.sampleRate)
	d.smoother.apply(ws.spectrum)

	var magThreshold float64
	ws.candidates, magThreshold = LocalMaxima(ws.candidates, ws.spectrum)
	promThreshold := ProminenceThreshold(ws.candidates)
	ws.peaks = ProminentPeaks(ws.peaks, ws.spectrum, ws.candidates, promThreshold)
	ws.notes = d.resolver.Resolve(ws.notes, ws.peaks)

	d.mailbox.Publish(ws.notes)
	d.passes.Add(1)

	pass := Pass{
		SampleCount:         count,
		FrequencyResolution: FrequencyResolution(d.sampleRate, count),
		NyquistLimit:        NyquistLimit(count),
		MagnitudeThreshold:  magThreshold,
		ProminenceThreshold: promThreshold,
		Spectrum:            ws.spectrum,
		Candidates:          ws.candidates,
		Peaks:               ws.peaks,
		Notes:               ws.notes,
	}
	if d.onPass != nil {
		d.onPass(pass)
	}
	return pass, nil
}

// Reset discards buffered samples and smoothing history. The mailbox keeps
// its last snapshot.
func (d *Detector) Reset() {
	d.ws.samples = d.ws.samples[:0]
	d.smoother.reset()
	d.state.Store(int32(Accumulating))
}

// State returns the current pipeline state.
func (d *Detector) State() State {
	return State(d.state.Load())
}

// Buffered returns the number of samples waiting for the next pass.
func (d *Detector) Buffered() int {
	return len(d.ws.samples)
}

// SetGate sets the absolute amplitude below which samples are dropped.
// Values at or below 0 disable the gate.
func (d *Detector) SetGate(threshold float64) {
	if threshold < 0 || math.IsNaN(threshold) {
		threshold = 0
	}
	d.gate.Store(math.Float64bits(threshold))
}

// Gate returns the current gate threshold.
func (d *Detector) Gate() float64 {
	return math.Float64frombits(d.gate.Load())
}

// Passes returns the number of completed passes.
func (d *Detector) Passes() uint64 { return d.passes.Load() }

// Mailbox returns the mailbox the detector publishes to.
func (d *Detector) Mailbox() *Mailbox { return d.mailbox }

// WindowSize returns N.
func (d *Detector) WindowSize() int { return d.size }

// Hop returns the number of new samples per pass.
func (d *Detector) Hop() int { return d.hop }

// SampleRate returns the configured sample rate in Hz.
func (d *Detector) SampleRate() float64 { return d.sampleRate }

// Close implements ClosableProcessor. The detector holds no external
// resources.
func (d *Detector) Close() error {
	d.Reset()
	return nil
}
