// SPDX-License-Identifier: MIT
package analysis

import "math/cmplx"

// Bin is one frequency slot of the magnitude spectrum.
type Bin struct {
	Index     int     // Position in the transform output.
	Frequency float64 // Index × frequency resolution, in Hz.
	Magnitude float64 // Modulus of the complex coefficient.
}

// NyquistLimit returns the number of physically meaningful bins for a pass
// over sampleCount real samples: floor(sampleCount/2).
func NyquistLimit(sampleCount int) int {
	return sampleCount / 2
}

// FrequencyResolution returns the bin spacing in Hz for a pass over
// sampleCount samples. It returns 0 for an empty pass.
func FrequencyResolution(sampleRate float64, sampleCount int) float64 {
	if sampleCount <= 0 {
		return 0
	}
	return sampleRate / float64(sampleCount)
}

// BuildSpectrum converts the first NyquistLimit(sampleCount) coefficients
// into bins, appended to dst[:0]. Coefficients at or above the Nyquist
// limit are never read. coeffs must hold at least that many values.
func BuildSpectrum(dst []Bin, coeffs []complex128, sampleCount int, sampleRate float64) []Bin {
	dst = dst[:0]
	limit := NyquistLimit(sampleCount)
	if limit > len(coeffs) {
		limit = len(coeffs)
	}
	resolution := FrequencyResolution(sampleRate, sampleCount)
	for i := 0; i < limit; i++ {
		dst = append(dst, Bin{
			Index:     i,
			Frequency: float64(i) * resolution,
			Magnitude: cmplx.Abs(coeffs[i]),
		})
	}
	return dst
}

// MaxMagnitude returns the largest magnitude in bins. An empty slice yields
// 0, so thresholds derived from it are 0 and select nothing.
func MaxMagnitude(bins []Bin) float64 {
	var peak float64
	for _, b := range bins {
		if b.Magnitude > peak {
			peak = b.Magnitude
		}
	}
	return peak
}

// smoother applies exponential cross-pass smoothing to spectrum magnitudes.
// alpha is the weight of the previous pass; 0 disables smoothing.
type smoother struct {
	alpha  float64
	prev   []float64
	primed bool
}

func newSmoother(alpha float64, bins int) *smoother {
	if alpha <= 0 {
		return &smoother{}
	}
	return &smoother{alpha: alpha, prev: make([]float64, bins)}
}

// apply smooths spectrum in place and remembers the result for the next pass.
func (s *smoother) apply(spectrum []Bin) {
	if s.alpha <= 0 {
		return
	}
	n := min(len(spectrum), len(s.prev))
	for i := 0; i < n; i++ {
		if s.primed {
			spectrum[i].Magnitude = s.alpha*s.prev[i] + (1-s.alpha)*spectrum[i].Magnitude
		}
		s.prev[i] = spectrum[i].Magnitude
	}
	s.primed = true
}

func (s *smoother) reset() {
	s.primed = false
}
