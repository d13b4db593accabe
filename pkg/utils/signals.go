// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and test doubles shared by the
// package tests. Nothing here is used on the real-time path.
package utils

import "math"

// GenerateSineWave returns size samples of a sine at frequency Hz with a
// peak amplitude of 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	return GenerateTones(size, sampleRate, 0.9, frequency)
}

// GenerateTones returns size samples of equal-amplitude sines mixed
// together. The peak of the mix never exceeds amplitude.
func GenerateTones(size int, sampleRate, amplitude float64, frequencies ...float64) []float64 {
	buffer := make([]float64, size)
	if len(frequencies) == 0 {
		return buffer
	}

	gain := amplitude / float64(len(frequencies))
	for i := range buffer {
		tm := float64(i) / sampleRate
		for _, f := range frequencies {
			buffer[i] += math.Sin(2*math.Pi*f*tm) * gain
		}
	}
	return buffer
}

// GenerateComplexWave returns a 440 Hz fundamental with its second and
// third harmonics at decreasing levels.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = (math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2) * 0.9
	}
	return buffer
}

// ToInt32 scales samples in [-1, 1] to the full int32 range, clamping
// anything outside it.
func ToInt32(samples []float64) []int32 {
	out := make([]int32, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		out[i] = int32(s * math.MaxInt32)
	}
	return out
}

// Interleave builds a multi-channel int32 buffer from per-channel samples.
// All channels must have the same length.
func Interleave(channels ...[]int32) []int32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]int32, frames*len(channels))
	for f := 0; f < frames; f++ {
		for c, ch := range channels {
			out[f*len(channels)+c] = ch[f]
		}
	}
	return out
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin:endBin+1]. Out-of-range bounds are clamped.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
