// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"chords/internal/config"
	"chords/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrAlreadyRecording is returned by StartRecording while a recording is
// in progress.
var ErrAlreadyRecording = errors.New("already recording")

// recordingFile is the destination of a recording. *os.File satisfies it.
type recordingFile interface {
	io.WriteSeeker
	io.Closer
	Name() string
}

var createRecordingFile = func(name string) (recordingFile, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// RecordingFilename returns a timestamped WAV path inside dir.
func RecordingFilename(dir string, t time.Time) string {
	return filepath.Join(dir, "input-"+t.Format("20060102-150405")+".wav")
}

// recorder moves input blocks from the audio callback to a WAV file.
//
// The callback side only swaps pre-allocated blocks between two buffered
// channels without blocking. The writer goroutine owns the encoder and the
// file and finalises both on every exit path.
type recorder struct {
	file     recordingFile
	encoder  *wav.Encoder
	buf      *audio.IntBuffer // Reusable buffer for format conversion
	bitShift int              // int32 → recording bit depth

	free chan []int32 // Empty blocks, filled by push.
	full chan []int32 // Filled blocks, drained by run.

	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
	err      error // Set by run before exited is closed.

	blocks  atomic.Uint64
	dropped atomic.Uint64
}

func (e *Engine) newRecorder(file recordingFile, bitDepth int) *recorder {
	depth := config.DefaultRecordingQueueBlocks
	r := &recorder{
		file:     file,
		encoder:  wav.NewEncoder(file, int(e.config.SampleRate()), bitDepth, e.channels, 1),
		bitShift: 32 - bitDepth,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: e.channels,
				SampleRate:  int(e.config.SampleRate()),
			},
			Data:           make([]int, len(e.inputBuffer)),
			SourceBitDepth: bitDepth,
		},
		free:   make(chan []int32, depth),
		full:   make(chan []int32, depth),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	for range depth {
		r.free <- make([]int32, len(e.inputBuffer))
	}
	return r
}

// push copies block into a free slot and queues it for the writer. When
// the writer has fallen behind the block is dropped and counted.
func (r *recorder) push(block []int32) {
	select {
	case slot := <-r.free:
		n := copy(slot[:cap(slot)], block)
		// Never blocks: only depth slots exist and full holds depth.
		r.full <- slot[:n]
	default:
		r.dropped.Add(1)
	}
}

// run writes queued blocks until stop is called or writes keep failing.
// onFailure runs after the file is finalised when recording gives up.
func (r *recorder) run(onFailure func()) {
	defer close(r.exited)

	failures := 0
	for {
		select {
		case block := <-r.full:
			err := r.write(block)
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures < config.DefaultMaxConsecutiveWriteFailures {
				continue
			}
			log.Errorf("Recording: stopped after %d consecutive write failures: %v", failures, err)
			r.err = errors.Join(fmt.Errorf("recording: %w", err), r.finish())
			if onFailure != nil {
				onFailure()
			}
			return

		case <-r.done:
			var werr error
			for drained := false; !drained; {
				select {
				case block := <-r.full:
					if err := r.write(block); err != nil && werr == nil {
						werr = err
					}
				default:
					drained = true
				}
			}
			r.err = errors.Join(werr, r.finish())
			return
		}
	}
}

func (r *recorder) write(block []int32) error {
	r.buf.Data = r.buf.Data[:len(block)]
	for i, sample := range block {
		r.buf.Data[i] = int(sample >> r.bitShift)
	}
	err := r.encoder.Write(r.buf)
	r.free <- block[:cap(block)]
	if err == nil {
		r.blocks.Add(1)
	}
	return err
}

// finish writes the final WAV header sizes and closes the file.
func (r *recorder) finish() error {
	err := errors.Join(r.encoder.Close(), r.file.Close())
	log.Infof("Recording: closed %s (%d blocks written, %d dropped)",
		r.file.Name(), r.blocks.Load(), r.dropped.Load())
	return err
}

// stop asks the writer to drain the queue and waits for it to finish.
func (r *recorder) stop() error {
	r.stopOnce.Do(func() { close(r.done) })
	<-r.exited
	return r.err
}

// StartRecording writes the raw input stream, all channels, to a WAV file
// at the configured bit depth.
func (e *Engine) StartRecording(filename string) error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := createRecordingFile(filename)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	bitDepth := e.config.Recording.BitDepth
	if bitDepth == 0 {
		bitDepth = config.DefaultBitDepth
	}

	rec := e.newRecorder(file, bitDepth)
	e.recorder.Store(rec)
	go rec.run(func() { e.recorder.CompareAndSwap(rec, nil) })

	log.Infof("Recording: writing %d-bit WAV to %s", bitDepth, filename)
	return nil
}

// StopRecording drains the queued blocks, finalises the WAV header and
// closes the file.
func (e *Engine) StopRecording() error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	return rec.stop()
}

// IsRecording reports whether the input stream is being recorded.
func (e *Engine) IsRecording() bool {
	return e.recorder.Load() != nil
}
