// SPDX-License-Identifier: MIT
package dsp

import "math"

// Axis selects how display bands are spread across the audible range.
type Axis int

const (
	// AxisLinear spaces band target frequencies evenly in Hz.
	AxisLinear Axis = iota
	// AxisLogarithmic spaces band centers evenly across octaves. This is
	// the canonical mapping: it matches how pitch is perceived.
	AxisLogarithmic
)

// String returns the axis name as used in configuration and flags.
func (a Axis) String() string {
	if a == AxisLinear {
		return "linear"
	}
	return "logarithmic"
}

// ParseAxis converts a string name (case follows config conventions, lower)
// to an Axis. Unknown names fall back to AxisLogarithmic with ok=false.
func ParseAxis(name string) (Axis, bool) {
	switch name {
	case "linear", "lin":
		return AxisLinear, true
	case "logarithmic", "log":
		return AxisLogarithmic, true
	default:
		return AxisLogarithmic, false
	}
}

// Audible range covered by the band mapping, in Hz.
const (
	MinFrequency = 20.0
	MaxFrequency = 20000.0
)

const (
	// Bands centered below this frequency get neighbor sampling to make up
	// for coarse bin resolution at the low end of the spectrum.
	refineBelowHz = 2000.0
	// Side bins contribute at reduced weight during neighbor sampling.
	sideBinWeight = 0.8
	// Bands centered below this frequency get an amplitude boost.
	boostBelowHz = 100.0
	boostAtMin   = 2.0 // boost factor at MinFrequency
	boostAtLimit = 1.2 // boost factor approaching boostBelowHz
	maxIntensity = 255.0
)

// MapToBands converts a raw byte magnitude spectrum into the requested
// number of display band intensities under the chosen frequency axis.
//
// raw follows the transform provider convention: len(raw) frequency bins of
// equal width, bin i centered at i*(sampleRate/2)/len(raw) Hz, magnitudes in
// 0-255. An empty or nil raw yields a zero-valued slice of length bands;
// absence of data is a valid, silent state. bands < 1 is a programmer error
// and panics.
//
// The linear axis is a direct per-band bin lookup. The logarithmic axis adds
// the low-frequency refinement: below 2 kHz the primary bin competes with its
// two neighbors (weighted 0.8), and below 100 Hz the result is boosted by a
// factor sliding from 2.0x at 20 Hz down to 1.2x at 100 Hz. Output values
// are always clamped to [0, 255].
func MapToBands(raw []byte, sampleRate float64, bands int, axis Axis) []float64 {
	if bands < 1 {
		panic("dsp: band count must be >= 1")
	}

	out := make([]float64, bands)
	if len(raw) == 0 || sampleRate <= 0 {
		return out
	}

	binWidth := sampleRate / 2 / float64(len(raw))

	for k := range bands {
		freq := bandFrequency(k, bands, axis)
		bin := binFor(freq, binWidth, len(raw))

		v := float64(raw[bin])
		if axis == AxisLogarithmic && freq < refineBelowHz {
			if bin > 0 {
				v = math.Max(v, sideBinWeight*float64(raw[bin-1]))
			}
			if bin < len(raw)-1 {
				v = math.Max(v, sideBinWeight*float64(raw[bin+1]))
			}
			v *= lowFrequencyBoost(freq)
		}

		out[k] = math.Min(v, maxIntensity)
	}

	return out
}

// bandFrequency returns the target (linear) or center (logarithmic)
// frequency in Hz for band k of the requested count.
func bandFrequency(k, bands int, axis Axis) float64 {
	if axis == AxisLinear {
		if bands == 1 {
			return MinFrequency
		}
		return MinFrequency + float64(k)/float64(bands-1)*(MaxFrequency-MinFrequency)
	}

	logMin := math.Log10(MinFrequency)
	logMax := math.Log10(MaxFrequency)
	center := (float64(k) + 0.5) / float64(bands)
	return math.Pow(10, logMin+center*(logMax-logMin))
}

// binFor maps a frequency to the nearest raw bin index, clamped to the valid
// range. Out-of-range frequencies land on a boundary bin, never on zero data.
func binFor(freq, binWidth float64, binCount int) int {
	bin := int(math.Round(freq / binWidth))
	if bin < 0 {
		return 0
	}
	if bin >= binCount {
		return binCount - 1
	}
	return bin
}

// lowFrequencyBoost returns the amplitude multiplier for a band center.
// 1.0 everywhere at and above boostBelowHz.
func lowFrequencyBoost(freq float64) float64 {
	if freq >= boostBelowHz {
		return 1.0
	}
	if freq <= MinFrequency {
		return boostAtMin
	}
	span := boostBelowHz - MinFrequency
	return boostAtMin - (freq-MinFrequency)/span*(boostAtMin-boostAtLimit)
}
