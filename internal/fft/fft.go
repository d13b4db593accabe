// SPDX-License-Identifier: MIT
/*
Package fft wraps the gonum forward transforms behind a fixed-size,
allocation-free interface for the note detector.

A Transform is planned once for a window length N and never re-planned.
Every call asserts the buffer shapes before invoking gonum; a mismatch
is reported as ErrLengthMismatch, which callers treat as a programming
error rather than a runtime condition.
*/
package fft

import (
	"errors"
	"fmt"

	"chords/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	// ErrLengthMismatch means the input or output buffer does not match the
	// length the transform was planned for.
	ErrLengthMismatch = errors.New("fft: buffer length mismatch")

	// ErrInvalidSize means the requested transform length is not a positive
	// power of two.
	ErrInvalidSize = errors.New("fft: size must be a positive power of 2")
)

// Transform computes the forward discrete Fourier transform of N real
// samples. Bins reports how many complex coefficients Forward writes.
type Transform interface {
	Size() int
	Bins() int
	Forward(dst []complex128, src []float64) error
}

// RealTransform computes only the non-redundant half of the spectrum of a
// real-valued input: N/2+1 coefficients for N samples.
type RealTransform struct {
	size int
	plan *fourier.FFT
}

// NewRealTransform plans a real-input transform of length n.
func NewRealTransform(n int) (*RealTransform, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, n)
	}
	return &RealTransform{size: n, plan: fourier.NewFFT(n)}, nil
}

// Size returns the planned input length N.
func (t *RealTransform) Size() int { return t.size }

// Bins returns N/2+1.
func (t *RealTransform) Bins() int { return t.size/2 + 1 }

// Forward writes the N/2+1 forward coefficients of src into dst.
func (t *RealTransform) Forward(dst []complex128, src []float64) error {
	if len(src) != t.size || len(dst) != t.Bins() {
		return ErrLengthMismatch
	}
	t.plan.Coefficients(dst, src)
	return nil
}

// ComplexTransform computes the full N-point complex transform of a real
// input. The input is widened into a pre-allocated complex buffer with zero
// imaginary parts before each call.
type ComplexTransform struct {
	size  int
	plan  *fourier.CmplxFFT
	input []complex128
}

// NewComplexTransform plans a complex transform of length n.
func NewComplexTransform(n int) (*ComplexTransform, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, n)
	}
	return &ComplexTransform{
		size:  n,
		plan:  fourier.NewCmplxFFT(n),
		input: make([]complex128, n),
	}, nil
}

// Size returns the planned input length N.
func (t *ComplexTransform) Size() int { return t.size }

// Bins returns N. Bins at and above N/2 mirror the lower half for real input.
func (t *ComplexTransform) Bins() int { return t.size }

// Forward writes the N forward coefficients of src into dst.
func (t *ComplexTransform) Forward(dst []complex128, src []float64) error {
	if len(src) != len(t.input) || len(dst) != len(t.input) {
		return ErrLengthMismatch
	}
	for i, v := range src {
		t.input[i] = complex(v, 0)
	}
	t.plan.Coefficients(dst, t.input)
	return nil
}

// Compile-time checks for interface implementations.
var _ Transform = (*RealTransform)(nil)
var _ Transform = (*ComplexTransform)(nil)
