// SPDX-License-Identifier: MIT
package dsp

// waveformCenter is the byte value of a zero crossing in provider waveform
// data (unsigned bytes centered at 128).
const waveformCenter = 128

// pitchCeilingHz bounds the fundamental search; lags shorter than one period
// of this frequency are skipped, which also suppresses the trivial peak at
// lag zero.
const pitchCeilingHz = 1000.0

// DetectPitch estimates the fundamental frequency of the given raw waveform
// via autocorrelation and returns it in Hz. A return of 0 means no pitch
// could be determined (silence, noise, or missing data).
//
// The cost is O(N^2) in the waveform length, so callers are expected to
// throttle it well below frame rate; that cadence lives in the session, not
// here.
func DetectPitch(waveform []byte, sampleRate float64) float64 {
	n := len(waveform)
	if n == 0 || sampleRate <= 0 {
		return 0
	}

	minLag := int(sampleRate / pitchCeilingHz)
	if minLag < 1 {
		minLag = 1
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag < n; lag++ {
		var corr float64
		for i := 0; i+lag < n; i++ {
			corr += float64(int(waveform[i])-waveformCenter) *
				float64(int(waveform[i+lag])-waveformCenter)
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	// A silent or aperiodic buffer never produces a positive correlation
	// peak, so bestLag stays at zero.
	if bestLag <= 0 {
		return 0
	}
	return sampleRate / float64(bestLag)
}
