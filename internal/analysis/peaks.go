// SPDX-License-Identifier: MIT
package analysis

// magnitudeRatio sets the local-maxima floor as a fraction of the loudest
// bin in the pass.
const magnitudeRatio = 3.0

// LocalMaxima appends to dst[:0] every interior bin of spectrum that is a
// strict local maximum and at least MaxMagnitude(spectrum)/3. The first and
// last bins are never candidates and equal-magnitude plateaus never
// qualify. It returns the candidates and the threshold that was applied.
func LocalMaxima(dst []Bin, spectrum []Bin) ([]Bin, float64) {
	dst = dst[:0]
	threshold := MaxMagnitude(spectrum) / magnitudeRatio

	for i := 1; i < len(spectrum)-1; i++ {
		mag := spectrum[i].Magnitude
		if mag < threshold {
			continue
		}
		if mag > spectrum[i-1].Magnitude && mag > spectrum[i+1].Magnitude {
			dst = append(dst, spectrum[i])
		}
	}

	return dst, threshold
}
