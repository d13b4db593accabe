// SPDX-License-Identifier: MIT
/*
Package notes holds the equal-tempered note table used to name spectral
peaks. The table is a static, frequency-sorted array so lookups are a
binary search with no allocation, which keeps them safe to call from the
audio callback.
*/
package notes

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyTable is returned when a resolver is built over a table with no
// entries. Nearest-neighbour lookup is only defined for a non-empty table.
var ErrEmptyTable = errors.New("note table is empty")

// Note pairs a note name (e.g. "A4", "C#5") with its frequency in Hz.
type Note struct {
	Name      string
	Frequency float64
}

// table spans C0 to D#8, tuned to A4 = 440 Hz, ascending by frequency.
var table = [...]Note{
	{Name: "C0", Frequency: 16.35},
	{Name: "C#0", Frequency: 17.32},
	{Name: "D0", Frequency: 18.35},
	{Name: "D#0", Frequency: 19.45},
	{Name: "E0", Frequency: 20.6},
	{Name: "F0", Frequency: 21.83},
	{Name: "F#0", Frequency: 23.12},
	{Name: "G0", Frequency: 24.5},
	{Name: "G#0", Frequency: 25.96},
	{Name: "A0", Frequency: 27.5},
	{Name: "A#0", Frequency: 29.14},
	{Name: "B0", Frequency: 30.87},
	{Name: "C1", Frequency: 32.7},
	{Name: "C#1", Frequency: 34.65},
	{Name: "D1", Frequency: 36.71},
	{Name: "D#1", Frequency: 38.89},
	{Name: "E1", Frequency: 41.2},
	{Name: "F1", Frequency: 43.65},
	{Name: "F#1", Frequency: 46.25},
	{Name: "G1", Frequency: 49.0},
	{Name: "G#1", Frequency: 51.91},
	{Name: "A1", Frequency: 55.0},
	{Name: "A#1", Frequency: 58.27},
	{Name: "B1", Frequency: 61.74},
	{Name: "C2", Frequency: 65.41},
	{Name: "C#2", Frequency: 69.3},
	{Name: "D2", Frequency: 73.42},
	{Name: "D#2", Frequency: 77.78},
	{Name: "E2", Frequency: 82.41},
	{Name: "F2", Frequency: 87.31},
	{Name: "F#2", Frequency: 92.5},
	{Name: "G2", Frequency: 98.0},
	{Name: "G#2", Frequency: 103.83},
	{Name: "A2", Frequency: 110.0},
	{Name: "A#2", Frequency: 116.54},
	{Name: "B2", Frequency: 123.47},
	{Name: "C3", Frequency: 130.81},
	{Name: "C#3", Frequency: 138.59},
	{Name: "D3", Frequency: 146.83},
	{Name: "D#3", Frequency: 155.56},
	{Name: "E3", Frequency: 164.81},
	{Name: "F3", Frequency: 174.61},
	{Name: "F#3", Frequency: 185.0},
	{Name: "G3", Frequency: 196.0},
	{Name: "G#3", Frequency: 207.65},
	{Name: "A3", Frequency: 220.0},
	{Name: "A#3", Frequency: 233.08},
	{Name: "B3", Frequency: 246.94},
	{Name: "C4", Frequency: 261.63},
	{Name: "C#4", Frequency: 277.18},
	{Name: "D4", Frequency: 293.66},
	{Name: "D#4", Frequency: 311.13},
	{Name: "E4", Frequency: 329.63},
	{Name: "F4", Frequency: 349.23},
	{Name: "F#4", Frequency: 369.99},
	{Name: "G4", Frequency: 392.0},
	{Name: "G#4", Frequency: 415.3},
	{Name: "A4", Frequency: 440.0},
	{Name: "A#4", Frequency: 466.16},
	{Name: "B4", Frequency: 493.88},
	{Name: "C5", Frequency: 523.25},
	{Name: "C#5", Frequency: 554.37},
	{Name: "D5", Frequency: 587.33},
	{Name: "D#5", Frequency: 622.25},
	{Name: "E5", Frequency: 659.26},
	{Name: "F5", Frequency: 698.46},
	{Name: "F#5", Frequency: 739.99},
	{Name: "G5", Frequency: 783.99},
	{Name: "G#5", Frequency: 830.61},
	{Name: "A5", Frequency: 880.0},
	{Name: "A#5", Frequency: 932.33},
	{Name: "B5", Frequency: 987.77},
	{Name: "C6", Frequency: 1046.5},
	{Name: "C#6", Frequency: 1108.73},
	{Name: "D6", Frequency: 1174.66},
	{Name: "D#6", Frequency: 1244.51},
	{Name: "E6", Frequency: 1318.51},
	{Name: "F6", Frequency: 1396.91},
	{Name: "F#6", Frequency: 1479.98},
	{Name: "G6", Frequency: 1567.98},
	{Name: "G#6", Frequency: 1661.22},
	{Name: "A6", Frequency: 1760.0},
	{Name: "A#6", Frequency: 1864.66},
	{Name: "B6", Frequency: 1975.53},
	{Name: "C7", Frequency: 2093.0},
	{Name: "C#7", Frequency: 2217.46},
	{Name: "D7", Frequency: 2349.32},
	{Name: "D#7", Frequency: 2489.02},
	{Name: "E7", Frequency: 2637.02},
	{Name: "F7", Frequency: 2793.83},
	{Name: "F#7", Frequency: 2959.96},
	{Name: "G7", Frequency: 3135.96},
	{Name: "G#7", Frequency: 3322.44},
	{Name: "A7", Frequency: 3520.0},
	{Name: "A#7", Frequency: 3729.31},
	{Name: "B7", Frequency: 3951.07},
	{Name: "C8", Frequency: 4186.01},
	{Name: "C#8", Frequency: 4434.92},
	{Name: "D8", Frequency: 4698.64},
	{Name: "D#8", Frequency: 4978.03},
}

// Table returns the note table. The returned slice aliases static storage
// and must not be modified.
func Table() []Note {
	return table[:]
}

// Len returns the number of entries in the note table.
func Len() int {
	return len(table)
}

// Nearest returns the entry of t whose frequency is closest to freq.
// Ties resolve to the lower-frequency entry. t must be sorted ascending
// by frequency; ok is false only when t is empty.
func Nearest(t []Note, freq float64) (note Note, ok bool) {
	if len(t) == 0 {
		return Note{}, false
	}

	// First entry at or above freq.
	i := sort.Search(len(t), func(i int) bool { return t[i].Frequency >= freq })
	switch {
	case i == 0:
		return t[0], true
	case i == len(t):
		return t[len(t)-1], true
	}

	below, above := t[i-1], t[i]
	if math.Abs(above.Frequency-freq) < math.Abs(freq-below.Frequency) {
		return above, true
	}
	return below, true
}

// Lookup returns the frequency of the named note.
func Lookup(name string) (float64, bool) {
	for _, n := range table {
		if n.Name == name {
			return n.Frequency, true
		}
	}
	return 0, false
}
