// SPDX-License-Identifier: MIT
/*
Package fft implements the transform provider: a windowed real FFT over
incoming sample buffers, exposed as byte-valued magnitude and waveform views
in the convention the analysis session expects.
*/
package fft

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tkm427/spectrum-analyzer/internal/analysis"
	applog "github.com/tkm427/spectrum-analyzer/internal/log"
	"github.com/tkm427/spectrum-analyzer/pkg/bitint"
)

// Byte magnitudes encode decibels relative to full scale, mapped linearly
// from [floorDB, ceilDB] onto [0, 255].
const (
	floorDB = -100.0
	ceilDB  = -30.0
)

// workspace holds the pre-allocated buffers for one provider. The mutex
// covers the byte views: Feed runs on the capture callback thread while
// Fill* runs on the poll loop.
type workspace struct {
	input    []float64    // windowed, normalized input samples
	coeffs   []complex128 // FFT complex output
	window   []float64    // window coefficients
	spectrum []byte       // byte magnitudes, size/2 bins
	waveform []byte       // byte amplitudes centered at 128, size/2 samples
	mu       sync.RWMutex
}

// Provider computes the raw transform data for a fixed transform size and
// sample rate. It implements analysis.TransformProvider.
type Provider struct {
	size       int
	sampleRate float64
	fft        *fourier.FFT
	workspace  workspace
	populated  bool
}

var _ analysis.TransformProvider = (*Provider)(nil)

// NewProvider creates a provider for the given transform size (power of two)
// and sample rate. windowName selects the analysis window by name; see
// ParseWindowFunc.
func NewProvider(size int, sampleRate float64, windowName string) (*Provider, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("transform size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	windowType, err := ParseWindowFunc(windowName)
	if err != nil {
		applog.Warnf("FFT: %v, using Hann", err)
	}
	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	bins := size / 2
	applog.Infof("FFT: provider ready (size %d, %.0f Hz, window %s)", size, sampleRate, windowName)

	return &Provider{
		size:       size,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		workspace: workspace{
			input:    make([]float64, size),
			coeffs:   make([]complex128, size/2+1),
			window:   coeffs,
			spectrum: make([]byte, bins),
			waveform: make([]byte, bins),
		},
	}, nil
}

// Feed processes one buffer of int32 samples: windowing, FFT, magnitude
// scaling to bytes. Buffers shorter than the transform size are zero padded.
// This runs on the capture hot path; it never allocates.
func (p *Provider) Feed(samples []int32) {
	const norm = 1.0 / float64(math.MaxInt32)

	p.workspace.mu.Lock()

	for i := range p.size {
		if i < len(samples) {
			p.workspace.input[i] = float64(samples[i]) * norm * p.workspace.window[i]
		} else {
			p.workspace.input[i] = 0
		}
	}

	p.fft.Coefficients(p.workspace.coeffs, p.workspace.input)

	for i := range p.workspace.spectrum {
		p.workspace.spectrum[i] = magnitudeByte(cmplx.Abs(p.workspace.coeffs[i]), p.size)
	}

	// The waveform view covers the most recent size/2 samples, unwindowed.
	half := p.size / 2
	for i := range p.workspace.waveform {
		idx := half + i
		if idx < len(samples) {
			p.workspace.waveform[i] = amplitudeByte(float64(samples[idx]) * norm)
		} else if i < len(samples) {
			p.workspace.waveform[i] = amplitudeByte(float64(samples[i]) * norm)
		} else {
			p.workspace.waveform[i] = 128
		}
	}

	p.populated = true
	p.workspace.mu.Unlock()
}

// FillSpectrum copies the latest byte magnitude spectrum into dst. It
// returns false before the first Feed or when dst has the wrong length.
func (p *Provider) FillSpectrum(dst []byte) bool {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()
	if !p.populated || len(dst) != len(p.workspace.spectrum) {
		return false
	}
	copy(dst, p.workspace.spectrum)
	return true
}

// FillWaveform copies the latest byte waveform into dst. Same contract as
// FillSpectrum.
func (p *Provider) FillWaveform(dst []byte) bool {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()
	if !p.populated || len(dst) != len(p.workspace.waveform) {
		return false
	}
	copy(dst, p.workspace.waveform)
	return true
}

// SampleRate returns the configured sample rate in Hz.
func (p *Provider) SampleRate() float64 {
	return p.sampleRate
}

// Size returns the transform size.
func (p *Provider) Size() int {
	return p.size
}

// BinCount returns the number of frequency bins (size/2).
func (p *Provider) BinCount() int {
	return p.size / 2
}

// FrequencyForBin returns the center frequency in Hz of a raw bin index.
func (p *Provider) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= p.size/2 {
		return 0
	}
	return float64(bin) * p.sampleRate / float64(p.size)
}

// Status implements analysis.TransformProvider. Active means at least one
// buffer has been processed.
func (p *Provider) Status() analysis.Status {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()
	return analysis.Status{Initialized: true, Active: p.populated}
}

// Close implements analysis.TransformProvider. The provider holds no
// external resources.
func (p *Provider) Close() error {
	return nil
}

// magnitudeByte maps an FFT magnitude to the 0-255 byte scale. Magnitudes
// are normalized by the transform size so a full-scale sine sits well inside
// the [floorDB, ceilDB] window.
func magnitudeByte(mag float64, size int) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag/float64(size))
	scaled := (db - floorDB) / (ceilDB - floorDB) * 255
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return byte(math.Round(scaled))
}

// amplitudeByte maps a sample in [-1, 1] to an unsigned byte centered at 128.
func amplitudeByte(s float64) byte {
	v := math.Round(s*127) + 128
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
