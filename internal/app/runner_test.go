// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tkm427/spectrum-analyzer/internal/analysis"
	"github.com/tkm427/spectrum-analyzer/internal/config"
	"github.com/tkm427/spectrum-analyzer/internal/fft"
	"github.com/tkm427/spectrum-analyzer/internal/source"
	"github.com/tkm427/spectrum-analyzer/internal/transport"
	"github.com/tkm427/spectrum-analyzer/pkg/synth"
)

// captureTransport retains every frame it is handed.
type captureTransport struct {
	frames []transport.BandFrame
}

func (c *captureTransport) Send(frame transport.BandFrame) error {
	c.frames = append(c.frames, frame)
	return nil
}

func (c *captureTransport) Close() error { return nil }

func newRunnerUnderTest(t *testing.T) (*Runner, *fft.Provider) {
	t.Helper()

	cfg := config.Default()
	cfg.Analysis.TransformSize = 2048
	cfg.Analysis.Bands = 16

	provider, err := fft.NewProvider(cfg.Analysis.TransformSize, cfg.Audio.SampleRate, cfg.Analysis.Window)
	if err != nil {
		t.Fatal(err)
	}

	session := analysis.NewSession(func() (analysis.TransformProvider, error) {
		return provider, nil
	}, cfg.Analysis.TransformSize)
	if !session.Initialize() {
		t.Fatal("session Initialize failed")
	}
	session.Start()

	return NewRunner(cfg, session), provider
}

func TestRunnerPollProducesFrames(t *testing.T) {
	r, provider := newRunnerUnderTest(t)
	sink := &captureTransport{}
	r.AddTransport(sink)

	provider.Feed(synth.SineInt32(2048, 44100, 440))
	frame := r.pollOnce()

	if len(frame.Bands) != 16 {
		t.Fatalf("frame has %d bands, want 16", len(frame.Bands))
	}
	if frame.Axis != "logarithmic" {
		t.Errorf("frame axis = %q, want logarithmic (the default)", frame.Axis)
	}
	if frame.Timestamp == 0 {
		t.Error("frame timestamp unset")
	}

	nonZero := false
	for _, v := range frame.Bands {
		if v > 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("all bands zero for a full-scale tone")
	}

	if len(sink.frames) != 1 {
		t.Fatalf("transport received %d frames, want 1", len(sink.frames))
	}
	if r.History().Len() != 1 {
		t.Errorf("history retained %d frames, want 1", r.History().Len())
	}

	latest, ok := r.LatestFrame()
	if !ok {
		t.Fatal("LatestFrame reports no frame after a poll")
	}
	if latest.Timestamp != frame.Timestamp {
		t.Error("LatestFrame does not match the last poll")
	}
}

func TestRunnerLatestFrameBeforePoll(t *testing.T) {
	r, _ := newRunnerUnderTest(t)
	if _, ok := r.LatestFrame(); ok {
		t.Error("LatestFrame reported a frame before any poll")
	}
}

func TestRunnerRunLiveStopsOnCancel(t *testing.T) {
	r, provider := newRunnerUnderTest(t)
	provider.Feed(synth.SineInt32(2048, 44100, 440))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := r.RunLive(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RunLive returned %v, want deadline exceeded", err)
	}
	if r.History().Len() == 0 {
		t.Error("no frames polled during RunLive")
	}
}

func TestRunnerRunClip(t *testing.T) {
	r, provider := newRunnerUnderTest(t)

	// One second of tone: 44100 samples over 2048-sample chunks.
	clip := &source.Clip{
		Samples:    synth.SineInt32(44100, 44100, 440),
		SampleRate: 44100,
	}

	err := r.RunClip(context.Background(), clip, provider.Feed, false)
	if err != nil {
		t.Fatal(err)
	}

	wantChunks := (len(clip.Samples) + 2047) / 2048
	if got := r.History().Len(); got != wantChunks {
		t.Errorf("history retained %d frames, want %d (one per chunk)", got, wantChunks)
	}
}

func TestRunnerRunClipCanceled(t *testing.T) {
	r, provider := newRunnerUnderTest(t)
	clip := &source.Clip{
		Samples:    make([]int32, 44100),
		SampleRate: 44100,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.RunClip(ctx, clip, provider.Feed, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled RunClip returned %v", err)
	}
}
