// SPDX-License-Identifier: MIT
package capture

import "math"

// EnableGate turns the noise gate on.
func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

// DisableGate turns the noise gate off; every buffer reaches the provider.
func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the noise gate threshold as a ratio of full
// scale, 0 = always open, 1 = always closed. Out-of-range values are
// clamped.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	e.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold returns the current threshold as a ratio of full scale.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}
