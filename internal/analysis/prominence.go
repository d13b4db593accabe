// SPDX-License-Identifier: MIT
package analysis

import "math"

// prominenceRatio sets the prominence floor as a fraction of the tallest
// candidate in the pass.
const prominenceRatio = 4.0

// ProminenceThreshold returns MaxMagnitude(candidates)/4.
func ProminenceThreshold(candidates []Bin) float64 {
	return MaxMagnitude(candidates) / prominenceRatio
}

// Prominence returns the topographic prominence of spectrum[p]: its height
// above the higher of the two valleys that separate it from a taller bin
// (or from the edge of the spectrum) on either side.
//
// Each side is scanned outward from p until a bin taller than spectrum[p]
// is found; the minimum seen on the way is that side's valley. A side with
// no bins keeps a valley of +Inf, which makes the prominence -Inf.
func Prominence(spectrum []Bin, p int) float64 {
	if p < 0 || p >= len(spectrum) {
		return math.Inf(-1)
	}
	height := spectrum[p].Magnitude

	leftMin := math.Inf(1)
	for i := p - 1; i >= 0; i-- {
		mag := spectrum[i].Magnitude
		if mag > height {
			break
		}
		leftMin = math.Min(leftMin, mag)
	}

	rightMin := math.Inf(1)
	for i := p + 1; i < len(spectrum); i++ {
		mag := spectrum[i].Magnitude
		if mag > height {
			break
		}
		rightMin = math.Min(rightMin, mag)
	}

	return height - math.Max(leftMin, rightMin)
}

// ProminentPeaks appends to dst[:0] every candidate whose prominence in
// spectrum is at least threshold. Candidates are located in spectrum by
// their Index. Filtering an already filtered set with threshold 0 returns
// it unchanged.
func ProminentPeaks(dst []Bin, spectrum []Bin, candidates []Bin, threshold float64) []Bin {
	dst = dst[:0]
	for _, c := range candidates {
		if Prominence(spectrum, c.Index) >= threshold {
			dst = append(dst, c)
		}
	}
	return dst
}
