// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
	"time"

	"chords/internal/notes"
	"chords/pkg/utils"
)

const (
	testSampleRate = 44100.0
	testWindow     = 4096
)

func newTestDetector(t testing.TB, opts Options) *Detector {
	t.Helper()
	if opts.SampleRate == 0 {
		opts.SampleRate = testSampleRate
	}
	if opts.WindowSize == 0 {
		opts.WindowSize = testWindow
	}
	d, err := NewDetector(opts)
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	return d
}

func latest(d *Detector) ([]string, uint64) {
	return d.Mailbox().Load(nil)
}

func TestNewDetectorErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"NonPowerOfTwo", Options{SampleRate: 44100, WindowSize: 1000}, ErrInvalidWindowSize},
		{"NegativeWindow", Options{SampleRate: 44100, WindowSize: -8}, ErrInvalidWindowSize},
		{"ZeroSampleRate", Options{WindowSize: 1024}, ErrInvalidSampleRate},
		{"NegativeSampleRate", Options{SampleRate: -1, WindowSize: 1024}, ErrInvalidSampleRate},
		{"OverlapOne", Options{SampleRate: 44100, Overlap: 1}, ErrInvalidOverlap},
		{"NegativeOverlap", Options{SampleRate: 44100, Overlap: -0.1}, ErrInvalidOverlap},
		{"EmptyTable", Options{SampleRate: 44100, Table: []notes.Note{}}, notes.ErrEmptyTable},
		{"InvertedRange", Options{SampleRate: 44100, MinFrequency: 900, MaxFrequency: 100}, ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetector(tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if d != nil {
				t.Error("expected a nil detector on error")
			}
		})
	}
}

func TestNewDetectorDefaults(t *testing.T) {
	d, err := NewDetector(Options{SampleRate: 48000})
	if err != nil {
		t.Fatal(err)
	}
	if d.WindowSize() != DefaultWindowSize || d.Hop() != DefaultWindowSize {
		t.Errorf("window/hop = %d/%d, want %d/%d", d.WindowSize(), d.Hop(), DefaultWindowSize, DefaultWindowSize)
	}
	if d.State() != Accumulating {
		t.Errorf("initial state = %s", d.State())
	}
	if _, seq := latest(d); seq != 0 {
		t.Errorf("fresh detector published %d snapshots", seq)
	}
}

func TestDetectSilence(t *testing.T) {
	d := newTestDetector(t, Options{})
	d.Write(make([]float64, testWindow))

	got, seq := latest(d)
	if seq != 1 {
		t.Fatalf("expected one pass, got %d", seq)
	}
	if len(got) != 0 {
		t.Errorf("silence produced notes %v", got)
	}
}

func TestDetectSingleTone(t *testing.T) {
	var peakFreq float64
	var pass Pass
	d := newTestDetector(t, Options{OnPass: func(p Pass) {
		pass = p
		if len(p.Peaks) > 0 {
			peakFreq = p.Peaks[0].Frequency
		}
	}})

	d.Write(utils.GenerateSineWave(testWindow, testSampleRate, 440))

	got, _ := latest(d)
	if !slices.Equal(got, []string{"A4"}) {
		t.Fatalf("notes = %v, want [A4]", got)
	}

	resolution := testSampleRate / testWindow
	if math.Abs(peakFreq-440) > resolution {
		t.Errorf("peak at %.2f Hz, want within %.2f Hz of 440", peakFreq, resolution)
	}
	if pass.SampleCount != testWindow || pass.NyquistLimit != testWindow/2 {
		t.Errorf("pass count/nyquist = %d/%d", pass.SampleCount, pass.NyquistLimit)
	}
	if math.Abs(pass.FrequencyResolution-resolution) > 1e-12 {
		t.Errorf("resolution = %f, want %f", pass.FrequencyResolution, resolution)
	}
	if len(pass.Spectrum) != testWindow/2 {
		t.Errorf("spectrum has %d bins, want %d", len(pass.Spectrum), testWindow/2)
	}
	if pass.MagnitudeThreshold <= 0 || pass.ProminenceThreshold <= 0 {
		t.Errorf("thresholds not derived: %f, %f", pass.MagnitudeThreshold, pass.ProminenceThreshold)
	}
}

func TestDetectOctave(t *testing.T) {
	for _, full := range []bool{false, true} {
		d := newTestDetector(t, Options{FullSpectrum: full})
		d.Write(utils.GenerateTones(testWindow, testSampleRate, 0.9, 440, 880))

		got, _ := latest(d)
		if !slices.Equal(got, []string{"A4", "A5"}) {
			t.Errorf("FullSpectrum=%v: notes = %v, want [A4 A5]", full, got)
		}
	}
}

func TestDetectLocalMaximaNeverAtEdges(t *testing.T) {
	var pass Pass
	d := newTestDetector(t, Options{WindowSize: 1024, OnPass: func(p Pass) { pass = p }})
	// A strong DC offset puts the largest magnitude in bin 0.
	sig := utils.GenerateSineWave(1024, testSampleRate, 2000)
	for i := range sig {
		sig[i] = 0.2*sig[i] + 0.8
	}
	d.Write(sig)

	for _, c := range pass.Candidates {
		if c.Index == 0 || c.Index == len(pass.Spectrum)-1 {
			t.Errorf("candidate at edge bin %d", c.Index)
		}
	}
}

func TestWriteAccumulatesAcrossBlocks(t *testing.T) {
	d := newTestDetector(t, Options{})
	tone := utils.GenerateSineWave(testWindow, testSampleRate, 440)

	const block = 100
	for i := 0; i+block < testWindow; i += block {
		d.Write(tone[i : i+block])
		if d.Passes() != 0 {
			t.Fatalf("pass ran after %d samples", i+block)
		}
	}
	if d.Buffered() != testWindow/block*block {
		t.Fatalf("buffered = %d", d.Buffered())
	}
	if d.State() != Accumulating {
		t.Errorf("state = %s while buffering", d.State())
	}

	d.Write(tone[testWindow/block*block:])
	if d.Passes() != 1 || d.Buffered() != 0 {
		t.Errorf("passes/buffered = %d/%d, want 1/0", d.Passes(), d.Buffered())
	}
	if got, _ := latest(d); !slices.Equal(got, []string{"A4"}) {
		t.Errorf("notes = %v, want [A4]", got)
	}
}

func TestWriteRunsSeveralPassesPerBlock(t *testing.T) {
	d := newTestDetector(t, Options{WindowSize: 1024})
	d.Write(make([]float64, 3*1024+10))
	if d.Passes() != 3 || d.Buffered() != 10 {
		t.Errorf("passes/buffered = %d/%d, want 3/10", d.Passes(), d.Buffered())
	}
}

func TestOverlap(t *testing.T) {
	d := newTestDetector(t, Options{Overlap: 0.5})
	if d.Hop() != testWindow/2 {
		t.Fatalf("hop = %d, want %d", d.Hop(), testWindow/2)
	}

	tone := utils.GenerateSineWave(2*testWindow, testSampleRate, 440)
	d.Write(tone[:testWindow])
	if d.Passes() != 1 || d.Buffered() != testWindow/2 {
		t.Fatalf("after one window: passes/buffered = %d/%d", d.Passes(), d.Buffered())
	}

	d.Write(tone[testWindow : testWindow+testWindow/2])
	if d.Passes() != 2 {
		t.Errorf("passes = %d, want 2 after one hop", d.Passes())
	}
}

func TestHopSize(t *testing.T) {
	tests := []struct {
		size    int
		overlap float64
		want    int
	}{
		{1024, 0, 1024},
		{1024, 0.5, 512},
		{1024, 0.75, 256},
		{1024, 0.9999, 1},
		{2, 0.5, 1},
	}
	for _, tt := range tests {
		if got := HopSize(tt.size, tt.overlap); got != tt.want {
			t.Errorf("HopSize(%d, %.4f) = %d, want %d", tt.size, tt.overlap, got, tt.want)
		}
	}
}

func TestGate(t *testing.T) {
	d := newTestDetector(t, Options{WindowSize: 1024, GateThreshold: 0.1})
	if d.Gate() != 0.1 {
		t.Fatalf("Gate() = %f", d.Gate())
	}

	d.Write(make([]float64, 4096))
	if d.Buffered() != 0 || d.Passes() != 0 {
		t.Errorf("gated silence was buffered: %d samples, %d passes", d.Buffered(), d.Passes())
	}

	d.Write([]float64{0.5, -0.5, 0.05, 0.2})
	if d.Buffered() != 3 {
		t.Errorf("buffered = %d, want 3", d.Buffered())
	}

	d.SetGate(-1)
	if d.Gate() != 0 {
		t.Errorf("negative gate stored as %f", d.Gate())
	}
	d.Write([]float64{0, 0})
	if d.Buffered() != 5 {
		t.Errorf("open gate dropped samples: buffered = %d", d.Buffered())
	}
}

func TestFrequencyRange(t *testing.T) {
	d := newTestDetector(t, Options{MinFrequency: 500, MaxFrequency: 20000})
	d.Write(utils.GenerateTones(testWindow, testSampleRate, 0.9, 440, 880))
	if got, _ := latest(d); !slices.Equal(got, []string{"A5"}) {
		t.Errorf("notes = %v, want [A5]", got)
	}
}

func TestSmoothing(t *testing.T) {
	tone := utils.GenerateSineWave(testWindow, testSampleRate, 440)
	silence := make([]float64, testWindow)

	plain := newTestDetector(t, Options{})
	plain.Write(tone)
	plain.Write(silence)
	if got, _ := latest(plain); len(got) != 0 {
		t.Errorf("unsmoothed silence kept notes %v", got)
	}

	smoothed := newTestDetector(t, Options{SmoothingTime: time.Second})
	smoothed.Write(tone)
	smoothed.Write(silence)
	if got, _ := latest(smoothed); !slices.Equal(got, []string{"A4"}) {
		t.Errorf("smoothed notes = %v, want [A4] to decay slowly", got)
	}

	smoothed.Reset()
	smoothed.Write(silence)
	if got, _ := latest(smoothed); len(got) != 0 {
		t.Errorf("smoothing history survived Reset: %v", got)
	}
}

func TestProcessInt32(t *testing.T) {
	d := newTestDetector(t, Options{})
	samples := utils.ToInt32(utils.GenerateSineWave(testWindow+512, testSampleRate, 440))

	for i := 0; i < len(samples); i += 512 {
		d.Process(samples[i:min(i+512, len(samples))])
	}
	if d.Passes() != 1 || d.Buffered() != 512 {
		t.Errorf("passes/buffered = %d/%d, want 1/512", d.Passes(), d.Buffered())
	}
	if got, _ := latest(d); !slices.Equal(got, []string{"A4"}) {
		t.Errorf("notes = %v, want [A4]", got)
	}

	// One oversized host block is split internally.
	d.Reset()
	d.Process(utils.ToInt32(utils.GenerateSineWave(3*testWindow, testSampleRate, 880)))
	if got, _ := latest(d); !slices.Equal(got, []string{"A5"}) {
		t.Errorf("notes = %v, want [A5]", got)
	}
}

func TestDegenerateWindowSkipsPass(t *testing.T) {
	d := newTestDetector(t, Options{WindowSize: 1})
	d.Write([]float64{0.5, 0.1, -0.3})
	if d.Passes() != 0 {
		t.Errorf("degenerate window ran %d passes", d.Passes())
	}
	if _, seq := latest(d); seq != 0 {
		t.Errorf("degenerate window published %d snapshots", seq)
	}
	if d.State() != Accumulating {
		t.Errorf("state = %s", d.State())
	}

	_, err := d.Analyze([]float64{1})
	if !errors.Is(err, ErrDegenerateWindow) {
		t.Errorf("Analyze: got %v, want ErrDegenerateWindow", err)
	}
}

func TestAnalyzeLengthMismatch(t *testing.T) {
	d := newTestDetector(t, Options{WindowSize: 1024})
	_, err := d.Analyze(make([]float64, 512))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("got %v, want ErrLengthMismatch", err)
	}
}

func TestPassFaultPanics(t *testing.T) {
	d := newTestDetector(t, Options{WindowSize: 1024})
	d.ws.coeffs = d.ws.coeffs[:1]

	defer func() {
		if recover() == nil {
			t.Error("expected a panic on a mis-sized transform buffer")
		}
	}()
	d.Write(make([]float64, 1024))
}

func TestStateString(t *testing.T) {
	if Accumulating.String() != "ACCUMULATING" || Analyzing.String() != "ANALYZING" {
		t.Error("unexpected state names")
	}
	if State(9).String() != "UNKNOWN" {
		t.Error("unknown state not reported")
	}
}

func TestOnPassSeesAnalyzing(t *testing.T) {
	var seen State
	var d *Detector
	d = newTestDetector(t, Options{WindowSize: 1024, OnPass: func(Pass) { seen = d.State() }})
	d.Write(make([]float64, 1024))
	if seen != Analyzing {
		t.Errorf("state during pass = %s, want ANALYZING", seen)
	}
	if d.State() != Accumulating {
		t.Errorf("state after pass = %s, want ACCUMULATING", d.State())
	}
}

func TestSharedMailbox(t *testing.T) {
	box := NewMailbox(notes.Len())
	d := newTestDetector(t, Options{Mailbox: box})
	if d.Mailbox() != box {
		t.Fatal("detector ignored the supplied mailbox")
	}
	d.Write(utils.GenerateSineWave(testWindow, testSampleRate, 440))
	if got, seq := box.Load(nil); seq != 1 || !slices.Equal(got, []string{"A4"}) {
		t.Errorf("mailbox = %v (seq %d)", got, seq)
	}
}

func TestWriteZeroAllocs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"Real", Options{}},
		{"Complex", Options{FullSpectrum: true}},
		{"Overlap", Options{Overlap: 0.5, SmoothingTime: 200 * time.Millisecond}},
		{"Gated", Options{GateThreshold: 0.01}},
	}
	tone := utils.GenerateTones(testWindow, testSampleRate, 0.9, 440, 880)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(t, tt.opts)
			d.Write(tone) // Warm up.

			allocs := testing.AllocsPerRun(20, func() {
				d.Write(tone)
			})
			if allocs > 0 {
				t.Errorf("Write allocated memory: got %.1f allocs, want 0", allocs)
			}
		})
	}
}

func TestProcessZeroAllocs(t *testing.T) {
	d := newTestDetector(t, Options{WindowSize: 1024})
	block := utils.ToInt32(utils.GenerateSineWave(256, testSampleRate, 440))
	allocs := testing.AllocsPerRun(100, func() {
		d.Process(block)
	})
	if allocs > 0 {
		t.Errorf("Process allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkDetectorWrite(b *testing.B) {
	sizes := []int{1024, 4096, 8192}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("N=%d", n), func(b *testing.B) {
			d := newTestDetector(b, Options{WindowSize: n})
			tone := utils.GenerateTones(n, testSampleRate, 0.9, 440, 880)
			b.ReportAllocs()
			for b.Loop() {
				d.Write(tone)
			}
		})
	}
}
