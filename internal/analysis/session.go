// SPDX-License-Identifier: MIT
/*
Package analysis glues the pure frequency-domain mapping and pitch-estimation
core to an external transform provider. A Session owns the raw spectrum and
waveform buffers, re-populated in place on each poll, and gates all access on
an explicit lifecycle:

	Uninitialized -> Initialized (idle) -> Active <-> Idle -> Disposed

Everything here is single-threaded and frame-driven: one caller polls
MapToBands and DetectPitch from its redraw loop, and no call ever blocks.
*/
package analysis

import (
	"fmt"
	"time"

	applog "github.com/tkm427/spectrum-analyzer/internal/log"
	"github.com/tkm427/spectrum-analyzer/internal/dsp"
	"github.com/tkm427/spectrum-analyzer/pkg/bitint"
)

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateActive
	StateIdle
	StateDisposed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// DefaultPitchInterval is the minimum time between pitch recomputations.
// Pitch detection is O(N^2) and must not run at frame rate.
const DefaultPitchInterval = 100 * time.Millisecond

// Session wraps the SpectrumMapper and PitchEstimator around one transform
// provider. It is an explicitly constructed, caller-owned object; consumers
// receive it by reference and never share hidden global state.
type Session struct {
	acquire  ProviderFunc
	provider TransformProvider

	transformSize int
	pitchInterval time.Duration

	// Owned poll buffers, length transformSize/2, reused across polls.
	spectrum []byte
	waveform []byte

	state State

	lastPitch    float64
	lastPitchAt  time.Time
	pitchPending bool // no estimate computed yet

	// now is swapped out by tests to drive the pitch throttle.
	now func() time.Time
}

// NewSession creates a session in the Uninitialized state. acquire is
// invoked by Initialize to obtain the transform provider. transformSize must
// be a power of two; invalid sizes fall back to the default 2048 with a
// warning rather than failing construction.
func NewSession(acquire ProviderFunc, transformSize int) *Session {
	if !bitint.IsPowerOfTwo(transformSize) {
		applog.Warnf("Session: transform size %d is not a power of 2, using 2048", transformSize)
		transformSize = 2048
	}
	return &Session{
		acquire:       acquire,
		transformSize: transformSize,
		pitchInterval: DefaultPitchInterval,
		pitchPending:  true,
		now:           time.Now,
	}
}

// SetPitchInterval adjusts the pitch throttle. Non-positive intervals
// disable throttling entirely.
func (s *Session) SetPitchInterval(d time.Duration) {
	s.pitchInterval = d
}

// Initialize acquires the transform provider and allocates the poll buffers.
// It reports success as a boolean; acquisition failures (permission denial,
// decode failure) are logged, never propagated as a panic. Initializing an
// already initialized session is a no-op returning true. A disposed session
// always returns false.
func (s *Session) Initialize() bool {
	switch s.state {
	case StateDisposed:
		return false
	case StateInitialized, StateActive, StateIdle:
		return true
	}

	provider, err := s.acquire()
	if err != nil {
		applog.Errorf("Session: provider acquisition failed: %v", err)
		return false
	}

	s.provider = provider
	s.allocBuffers()
	s.state = StateInitialized
	applog.Infof("Session: initialized (transform size %d, sample rate %.0f Hz)",
		s.transformSize, provider.SampleRate())
	return true
}

// Start begins polling. Valid from Initialized or Idle; starting an Active
// session is a no-op. Reports whether the session is now active.
func (s *Session) Start() bool {
	switch s.state {
	case StateInitialized, StateIdle, StateActive:
		s.state = StateActive
		return true
	default:
		return false
	}
}

// Stop suspends polling while retaining the provider and buffers.
func (s *Session) Stop() {
	if s.state == StateActive {
		s.state = StateIdle
	}
}

// Dispose releases the provider and buffers and moves the session to the
// terminal Disposed state. Any later call returns the unavailable sentinel
// (false, 0, or a zero slice) rather than failing. Dispose is idempotent.
func (s *Session) Dispose() {
	if s.state == StateDisposed {
		return
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			applog.Warnf("Session: provider close: %v", err)
		}
		s.provider = nil
	}
	s.spectrum = nil
	s.waveform = nil
	s.state = StateDisposed
}

// SetTransformSize changes the transform resolution and reallocates the poll
// buffers. Non-power-of-two sizes are rejected with an error and the
// previous configuration is retained.
func (s *Session) SetTransformSize(n int) error {
	if s.state == StateDisposed {
		return fmt.Errorf("session is disposed")
	}
	if !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("transform size must be a power of 2, got %d", n)
	}
	if n == s.transformSize {
		return nil
	}
	s.transformSize = n
	if s.state != StateUninitialized {
		s.allocBuffers()
	}
	applog.Debugf("Session: transform size set to %d", n)
	return nil
}

// TransformSize returns the current transform resolution.
func (s *Session) TransformSize() int {
	return s.transformSize
}

// MapToBands polls the provider for a fresh raw spectrum and maps it to the
// requested number of display bands. While the session is not active, or
// before the provider has produced data, it returns a zero-valued slice of
// the requested length.
func (s *Session) MapToBands(bands int, axis dsp.Axis) []float64 {
	if bands < 1 {
		panic("analysis: band count must be >= 1")
	}
	if s.state != StateActive {
		return make([]float64, bands)
	}
	if !s.provider.FillSpectrum(s.spectrum) {
		return make([]float64, bands)
	}
	return dsp.MapToBands(s.spectrum, s.provider.SampleRate(), bands, axis)
}

// DetectPitch returns the estimated fundamental frequency in Hz, 0 when
// undetermined. Estimates are recomputed at most once per pitch interval;
// in between, the previous estimate is returned unchanged.
func (s *Session) DetectPitch() float64 {
	if s.state != StateActive {
		return 0
	}

	now := s.now()
	if !s.pitchPending && s.pitchInterval > 0 && now.Sub(s.lastPitchAt) < s.pitchInterval {
		return s.lastPitch
	}

	if !s.provider.FillWaveform(s.waveform) {
		return 0
	}

	s.lastPitch = dsp.DetectPitch(s.waveform, s.provider.SampleRate())
	s.lastPitchAt = now
	s.pitchPending = false
	return s.lastPitch
}

// Status reports the session lifecycle to consumers. A disposed session
// reports the zero Status.
func (s *Session) Status() Status {
	switch s.state {
	case StateInitialized, StateIdle:
		return Status{Initialized: true}
	case StateActive:
		return Status{Initialized: true, Active: true}
	default:
		return Status{}
	}
}

// State returns the raw lifecycle state.
func (s *Session) State() State {
	return s.state
}

func (s *Session) allocBuffers() {
	bins := s.transformSize / 2
	s.spectrum = make([]byte, bins)
	s.waveform = make([]byte, bins)
}
