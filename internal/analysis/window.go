// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"

	"gonum.org/v1/gonum/dsp/window"
)

var (
	// ErrDegenerateWindow is returned for windows of one sample or fewer,
	// where the taper is undefined. The pass is skipped, not faulted.
	ErrDegenerateWindow = errors.New("analysis: window needs at least 2 samples")

	// ErrLengthMismatch means a pass-scoped buffer does not have the length
	// the detector was configured for.
	ErrLengthMismatch = errors.New("analysis: buffer length mismatch")
)

// Taper holds pre-computed Hann coefficients for a fixed window length:
//
//	w(i) = 0.5 - 0.5·cos(2π·i/(N-1))
type Taper struct {
	coeffs []float64
}

// NewTaper computes the coefficients for a window of n samples. For n <= 1
// the taper is degenerate and Apply always reports ErrDegenerateWindow.
func NewTaper(n int) *Taper {
	if n <= 1 {
		return &Taper{}
	}
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hann(coeffs)
	return &Taper{coeffs: coeffs}
}

// Len returns the window length the taper was built for.
func (t *Taper) Len() int {
	return len(t.coeffs)
}

// Apply writes src[i]·w(i) into dst. src and dst must both have the taper's
// length; they may alias.
func (t *Taper) Apply(dst, src []float64) error {
	if len(src) <= 1 || len(t.coeffs) == 0 {
		return ErrDegenerateWindow
	}
	if len(src) != len(t.coeffs) || len(dst) != len(t.coeffs) {
		return ErrLengthMismatch
	}
	for i, w := range t.coeffs {
		dst[i] = src[i] * w
	}
	return nil
}
