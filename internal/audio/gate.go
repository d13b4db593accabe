// SPDX-License-Identifier: MIT
package audio

import "math"

// EnableGate applies the stored threshold to the detector, dropping every
// sample whose absolute value is below it.
func (e *Engine) EnableGate() {
	e.gateEnabled.Store(true)
	e.detector.SetGate(e.GetGateThreshold())
}

// DisableGate lets every sample through without forgetting the threshold.
func (e *Engine) DisableGate() {
	e.gateEnabled.Store(false)
	e.detector.SetGate(0)
}

// ToggleGate flips the gate and reports whether it is now enabled.
func (e *Engine) ToggleGate() bool {
	if e.GateEnabled() {
		e.DisableGate()
		return false
	}
	e.EnableGate()
	return true
}

// GateEnabled reports whether the gate is applied.
func (e *Engine) GateEnabled() bool {
	return e.gateEnabled.Load()
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 || math.IsNaN(threshold) {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold.Store(math.Float64bits(threshold))
	if e.GateEnabled() {
		e.detector.SetGate(threshold)
	}
}

// GetGateThreshold returns the current noise gate threshold.
func (e *Engine) GetGateThreshold() float64 {
	return math.Float64frombits(e.gateThreshold.Load())
}
