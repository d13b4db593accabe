// SPDX-License-Identifier: MIT
package analysis

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"chords/internal/notes"
)

// ErrInvalidRange is returned when the resolver's frequency range is empty
// or negative.
var ErrInvalidRange = errors.New("analysis: invalid frequency range")

// Resolver maps prominent peaks to note names using a frequency-sorted
// table. Peaks outside [minHz, maxHz] are ignored.
type Resolver struct {
	table []notes.Note
	minHz float64
	maxHz float64
}

// NewResolver validates the table and range and returns a Resolver. The
// table must be sorted ascending by frequency.
func NewResolver(table []notes.Note, minHz, maxHz float64) (*Resolver, error) {
	if len(table) == 0 {
		return nil, notes.ErrEmptyTable
	}
	if !slices.IsSortedFunc(table, func(a, b notes.Note) int {
		return cmp.Compare(a.Frequency, b.Frequency)
	}) {
		return nil, errors.New("analysis: note table is not sorted by frequency")
	}
	if minHz < 0 || maxHz <= minHz {
		return nil, fmt.Errorf("%w: [%.2f, %.2f] Hz", ErrInvalidRange, minHz, maxHz)
	}
	return &Resolver{table: table, minHz: minHz, maxHz: maxHz}, nil
}

// Resolve appends to dst[:0] the nearest note name for each peak, in peak
// order, skipping names already present. dst should have capacity for the
// whole table so that Resolve never grows it.
func (r *Resolver) Resolve(dst []string, peaks []Bin) []string {
	dst = dst[:0]
	for _, p := range peaks {
		if p.Frequency < r.minHz || p.Frequency > r.maxHz {
			continue
		}
		n, ok := notes.Nearest(r.table, p.Frequency)
		if !ok || slices.Contains(dst, n.Name) {
			continue
		}
		dst = append(dst, n.Name)
	}
	return dst
}

// TableLen returns the number of notes the resolver can emit, which bounds
// the length of any Resolve result.
func (r *Resolver) TableLen() int {
	return len(r.table)
}
