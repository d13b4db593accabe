// SPDX-License-Identifier: MIT
package analysis

// AudioProcessor consumes blocks of mono int32 host samples. Process is
// called from the real-time audio callback and must not block or allocate.
type AudioProcessor interface {
	Process(inputBuffer []int32)
}

// ClosableProcessor is an AudioProcessor holding resources to release.
type ClosableProcessor interface {
	AudioProcessor
	Close() error
}

// NotesProvider exposes the most recent set of detected note names to
// presentation readers such as publishers and the terminal UI.
type NotesProvider interface {
	// Load copies the latest note names into dst[:0] and returns the grown
	// slice together with the sequence number of the pass that produced
	// them. A sequence of 0 means no pass has completed yet.
	Load(dst []string) ([]string, uint64)
}
