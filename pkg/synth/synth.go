// Package synth generates deterministic test signals for the analysis
// pipeline: pure tones, harmonic stacks, and their byte-domain encodings as
// produced by a transform provider.
package synth

import "math"

// Sine returns n samples of a unit-amplitude sine at the given frequency.
func Sine(n int, sampleRate, frequency float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	return out
}

// Harmonics returns n samples of a 440 Hz fundamental with its second and
// third harmonics at decreasing amplitude, the standard rich test tone.
func Harmonics(n int, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
	}
	return out
}

// SineInt32 returns n samples of a sine scaled to 90% of the int32 range,
// matching the capture path's sample format.
func SineInt32(n int, sampleRate, frequency float64) []int32 {
	out := make([]int32, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * 0.9)
	}
	return out
}

// WaveformBytes encodes samples in [-1, 1] as unsigned bytes centered at
// 128, the raw waveform convention of the transform provider.
func WaveformBytes(samples []float64) []byte {
	out := make([]byte, len(samples))
	for i, s := range samples {
		v := math.Round(s*127) + 128
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// SineWaveformBytes is a convenience wrapper producing the byte waveform of
// a pure tone at 90% amplitude.
func SineWaveformBytes(n int, sampleRate, frequency float64) []byte {
	samples := Sine(n, sampleRate, frequency)
	for i := range samples {
		samples[i] *= 0.9
	}
	return WaveformBytes(samples)
}

// ConstantSpectrum returns a raw spectrum of n bins all at the given level.
func ConstantSpectrum(n int, level byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = level
	}
	return out
}
