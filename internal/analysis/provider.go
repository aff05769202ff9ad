// SPDX-License-Identifier: MIT
package analysis

// Status reports the lifecycle of a transform provider or session.
type Status struct {
	Initialized bool
	Active      bool
}

// TransformProvider is the external collaborator that owns the raw transform
// output. It delivers two fixed-size byte views per poll: magnitude per
// frequency bin (0-255) and time-domain amplitude per sample (0-255,
// centered at 128). Both have length transformSize/2.
//
// Fill methods return false when no data is available yet (stream not
// started, first buffer still pending) or when dst does not match the
// provider's bin count; absence of data is a valid state, not an error.
type TransformProvider interface {
	FillSpectrum(dst []byte) bool
	FillWaveform(dst []byte) bool
	SampleRate() float64
	Status() Status
	Close() error
}

// ProviderFunc acquires a TransformProvider. Acquisition is the one step
// that can genuinely fail (device permission denied, decode failure); the
// session surfaces that as a boolean from Initialize.
type ProviderFunc func() (TransformProvider, error)
