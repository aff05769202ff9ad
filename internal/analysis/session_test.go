// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/tkm427/spectrum-analyzer/internal/dsp"
	"github.com/tkm427/spectrum-analyzer/pkg/synth"
)

// fakeProvider serves canned spectrum/waveform data sized for one transform
// resolution. Fill calls fail on length mismatch, matching the real provider.
type fakeProvider struct {
	spectrum   []byte
	waveform   []byte
	sampleRate float64
	populated  bool
	closed     bool
}

var _ TransformProvider = (*fakeProvider)(nil)

func (f *fakeProvider) FillSpectrum(dst []byte) bool {
	if !f.populated || len(dst) != len(f.spectrum) {
		return false
	}
	copy(dst, f.spectrum)
	return true
}

func (f *fakeProvider) FillWaveform(dst []byte) bool {
	if !f.populated || len(dst) != len(f.waveform) {
		return false
	}
	copy(dst, f.waveform)
	return true
}

func (f *fakeProvider) SampleRate() float64 { return f.sampleRate }

func (f *fakeProvider) Status() Status {
	return Status{Initialized: true, Active: f.populated}
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

func newFakeProvider(transformSize int) *fakeProvider {
	bins := transformSize / 2
	return &fakeProvider{
		spectrum:   synth.ConstantSpectrum(bins, 100),
		waveform:   synth.SineWaveformBytes(bins, 44100, 440),
		sampleRate: 44100,
		populated:  true,
	}
}

func newTestSession(t *testing.T, p *fakeProvider) *Session {
	t.Helper()
	s := NewSession(func() (TransformProvider, error) { return p, nil }, 2048)
	if !s.Initialize() {
		t.Fatal("Initialize failed with a working provider")
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	p := newFakeProvider(2048)
	s := NewSession(func() (TransformProvider, error) { return p, nil }, 2048)

	if s.State() != StateUninitialized {
		t.Fatalf("new session state = %v, want uninitialized", s.State())
	}
	if st := s.Status(); st.Initialized || st.Active {
		t.Errorf("uninitialized status = %+v, want zero", st)
	}

	if !s.Initialize() {
		t.Fatal("Initialize returned false")
	}
	if s.State() != StateInitialized {
		t.Fatalf("state after Initialize = %v", s.State())
	}
	// Re-initializing is a no-op success.
	if !s.Initialize() {
		t.Error("second Initialize returned false")
	}

	if !s.Start() {
		t.Fatal("Start returned false from initialized")
	}
	if st := s.Status(); !st.Initialized || !st.Active {
		t.Errorf("active status = %+v", st)
	}

	s.Stop()
	if s.State() != StateIdle {
		t.Fatalf("state after Stop = %v, want idle", s.State())
	}
	if st := s.Status(); !st.Initialized || st.Active {
		t.Errorf("idle status = %+v", st)
	}

	// Idle sessions can be restarted.
	if !s.Start() {
		t.Error("Start returned false from idle")
	}

	s.Dispose()
	if s.State() != StateDisposed {
		t.Fatalf("state after Dispose = %v", s.State())
	}
	if !p.closed {
		t.Error("Dispose did not close the provider")
	}
}

func TestSessionInitializeFailure(t *testing.T) {
	s := NewSession(func() (TransformProvider, error) {
		return nil, errors.New("device unavailable")
	}, 2048)

	if s.Initialize() {
		t.Fatal("Initialize returned true despite acquisition failure")
	}
	if s.State() != StateUninitialized {
		t.Errorf("state after failed Initialize = %v, want uninitialized", s.State())
	}
	if s.Start() {
		t.Error("Start succeeded on an uninitialized session")
	}
}

func TestSessionDisposedSentinels(t *testing.T) {
	p := newFakeProvider(2048)
	s := newTestSession(t, p)
	s.Start()
	s.Dispose()

	if s.Initialize() {
		t.Error("Initialize returned true on a disposed session")
	}
	if s.Start() {
		t.Error("Start returned true on a disposed session")
	}
	if err := s.SetTransformSize(4096); err == nil {
		t.Error("SetTransformSize succeeded on a disposed session")
	}
	for k, v := range s.MapToBands(8, dsp.AxisLogarithmic) {
		if v != 0 {
			t.Errorf("disposed MapToBands band %d = %.2f, want 0", k, v)
		}
	}
	if got := s.DetectPitch(); got != 0 {
		t.Errorf("disposed DetectPitch = %.2f, want 0", got)
	}
	if st := s.Status(); st.Initialized || st.Active {
		t.Errorf("disposed status = %+v, want zero", st)
	}

	// Idempotent.
	s.Dispose()
}

func TestSessionNonPowerOfTwoConstruction(t *testing.T) {
	s := NewSession(func() (TransformProvider, error) { return newFakeProvider(2048), nil }, 3000)
	if s.TransformSize() != 2048 {
		t.Errorf("transform size = %d, want fallback 2048", s.TransformSize())
	}
}

func TestSessionSetTransformSize(t *testing.T) {
	p := newFakeProvider(2048)
	s := newTestSession(t, p)

	tests := []struct {
		name string
		size int
	}{
		{"one under", 4095},
		{"one over", 4097},
		{"zero", 0},
		{"negative", -2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetTransformSize(tt.size); err == nil {
				t.Fatalf("SetTransformSize(%d) accepted a non power of 2", tt.size)
			}
			if s.TransformSize() != 2048 {
				t.Errorf("rejected resize changed transform size to %d", s.TransformSize())
			}
		})
	}

	if err := s.SetTransformSize(4096); err != nil {
		t.Fatalf("SetTransformSize(4096): %v", err)
	}
	if s.TransformSize() != 4096 {
		t.Errorf("transform size = %d, want 4096", s.TransformSize())
	}
}

func TestSessionMapToBands(t *testing.T) {
	p := newFakeProvider(2048)
	s := newTestSession(t, p)

	// Not active yet: zeros.
	for _, v := range s.MapToBands(16, dsp.AxisLinear) {
		if v != 0 {
			t.Fatal("MapToBands returned data before Start")
		}
	}

	s.Start()
	out := s.MapToBands(16, dsp.AxisLinear)
	if len(out) != 16 {
		t.Fatalf("got %d bands, want 16", len(out))
	}
	// Constant spectrum at 100, linear axis: direct lookups.
	for k, v := range out {
		if v != 100 {
			t.Errorf("band %d = %.2f, want 100", k, v)
		}
	}

	// Provider with no data yet: zeros, not an error.
	p.populated = false
	for _, v := range s.MapToBands(16, dsp.AxisLinear) {
		if v != 0 {
			t.Fatal("MapToBands returned data from an unpopulated provider")
		}
	}
}

func TestSessionMapToBandsPanicsOnZeroBands(t *testing.T) {
	s := newTestSession(t, newFakeProvider(2048))
	defer func() {
		if recover() == nil {
			t.Error("expected panic for bands < 1")
		}
	}()
	s.MapToBands(0, dsp.AxisLogarithmic)
}

func TestSessionPitchThrottle(t *testing.T) {
	p := newFakeProvider(2048)
	s := newTestSession(t, p)
	s.Start()

	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }

	first := s.DetectPitch()
	if first == 0 {
		t.Fatal("no pitch from a 440 Hz waveform")
	}

	// Swap the provider data to silence; within the interval the cached
	// estimate must come back untouched.
	for i := range p.waveform {
		p.waveform[i] = 128
	}
	clock = clock.Add(50 * time.Millisecond)
	if got := s.DetectPitch(); got != first {
		t.Errorf("throttled DetectPitch = %.2f, want cached %.2f", got, first)
	}

	// Past the interval it recomputes and sees the silence.
	clock = clock.Add(60 * time.Millisecond)
	if got := s.DetectPitch(); got != 0 {
		t.Errorf("recomputed DetectPitch = %.2f, want 0 for silence", got)
	}
}

func TestSessionPitchThrottleDisabled(t *testing.T) {
	p := newFakeProvider(2048)
	s := newTestSession(t, p)
	s.SetPitchInterval(0)
	s.Start()

	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }

	if s.DetectPitch() == 0 {
		t.Fatal("no pitch from a 440 Hz waveform")
	}
	for i := range p.waveform {
		p.waveform[i] = 128
	}
	// Same instant, throttle disabled: recomputes immediately.
	if got := s.DetectPitch(); got != 0 {
		t.Errorf("unthrottled DetectPitch = %.2f, want 0 for silence", got)
	}
}

func TestSessionPitchIdle(t *testing.T) {
	s := newTestSession(t, newFakeProvider(2048))
	if got := s.DetectPitch(); got != 0 {
		t.Errorf("DetectPitch before Start = %.2f, want 0", got)
	}
	s.Start()
	s.Stop()
	if got := s.DetectPitch(); got != 0 {
		t.Errorf("DetectPitch while idle = %.2f, want 0", got)
	}
}
