// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"chords/internal/analysis"
	"chords/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// fileChunkFrames is the number of frames decoded per read, mimicking a
// host block.
const fileChunkFrames = 512

// ErrUnsupportedFile is returned for inputs that are not PCM WAV files with
// 16, 24 or 32-bit samples.
var ErrUnsupportedFile = errors.New("unsupported audio file")

// FileInfo describes a decoded WAV file.
type FileInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   time.Duration
}

// Segment is the note set of one analysis pass.
type Segment struct {
	Start time.Duration // File offset of the window's first sample.
	Notes []string
}

// FileReport is the result of analysing a file.
type FileReport struct {
	FileInfo
	Segments []Segment

	// Discarded is the number of frames after the end of the last
	// analysed window. It is Frames when no window was filled.
	Discarded int
}

// AnalyzeFile runs the detector over channel 0 of the WAV file at path.
// opts.SampleRate is taken from the file.
func AnalyzeFile(path string, opts analysis.Options) (*FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	report, err := AnalyzeWAV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// AnalyzeWAV is AnalyzeFile over an already opened reader. The gate is
// applied while decoding so that segment offsets stay in file time even
// when quiet samples are dropped.
func AnalyzeWAV(r io.ReadSeeker, opts analysis.Options) (*FileReport, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrUnsupportedFile)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: WAV format %d is not integer PCM", ErrUnsupportedFile, dec.WavAudioFormat)
	}

	report := &FileReport{FileInfo: FileInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}}
	switch report.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFile, report.BitDepth)
	}
	if report.Channels < 1 || report.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFile, report.Channels, report.SampleRate)
	}

	opts.SampleRate = float64(report.SampleRate)
	gate := opts.GateThreshold
	opts.GateThreshold = 0

	var (
		hop, size  int
		positions  []int // File frame of every kept sample, indexed modulo len.
		kept       int
		analysedTo int // Frame after the last analysed window.
	)
	userHook := opts.OnPass
	opts.OnPass = func(p analysis.Pass) {
		first := len(report.Segments) * hop
		start := positions[first%len(positions)]
		analysedTo = positions[(first+size-1)%len(positions)] + 1
		report.Segments = append(report.Segments, Segment{
			Start: framesToDuration(start, opts.SampleRate),
			Notes: slices.Clone(p.Notes),
		})
		if userHook != nil {
			userHook(p)
		}
	}

	detector, err := analysis.NewDetector(opts)
	if err != nil {
		return nil, err
	}
	hop, size = detector.Hop(), detector.WindowSize()
	// A pass fires at most one chunk after its window's last sample was
	// recorded, so N+chunk slots never overwrite a live window.
	positions = make([]int, size+fileChunkFrames)

	log.Debugf("Audio: decoding %d Hz, %d ch, %d-bit WAV", report.SampleRate, report.Channels, report.BitDepth)

	buf := &audio.IntBuffer{
		Format:         dec.Format(),
		Data:           make([]int, fileChunkFrames*report.Channels),
		SourceBitDepth: report.BitDepth,
	}
	mono := make([]float64, fileChunkFrames)
	scale := 1.0 / float64(int64(1)<<(report.BitDepth-1))

	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to decode PCM data: %w", err)
		}
		if n == 0 {
			break
		}

		frames := n / report.Channels
		m := 0
		for i := range frames {
			s := float64(buf.Data[i*report.Channels]) * scale
			if gate > 0 && math.Abs(s) < gate {
				continue
			}
			mono[m] = s
			positions[kept%len(positions)] = report.Frames + i
			kept++
			m++
		}
		detector.Write(mono[:m])
		report.Frames += frames
	}

	report.Discarded = report.Frames - analysedTo
	report.Duration = framesToDuration(report.Frames, opts.SampleRate)
	if report.Discarded > 0 {
		log.Debugf("Audio: %d trailing frames were not part of a full window", report.Discarded)
	}
	return report, nil
}

func framesToDuration(frames int, sampleRate float64) time.Duration {
	return time.Duration(float64(frames) / sampleRate * float64(time.Second))
}
