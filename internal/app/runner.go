// SPDX-License-Identifier: MIT
/*
Package app drives the poll/draw cycle: one loop polls the analysis session
at display rate, pushes each snapshot into the spectrogram history, and fans
the resulting band frames out to the configured transports.
*/
package app

import (
	"context"
	"sync"
	"time"

	"github.com/tkm427/spectrum-analyzer/internal/analysis"
	"github.com/tkm427/spectrum-analyzer/internal/config"
	"github.com/tkm427/spectrum-analyzer/internal/dsp"
	applog "github.com/tkm427/spectrum-analyzer/internal/log"
	"github.com/tkm427/spectrum-analyzer/internal/source"
	"github.com/tkm427/spectrum-analyzer/internal/transport"
)

// pollInterval stands in for the display refresh clock (~60 Hz) in this
// headless runner.
const pollInterval = 16 * time.Millisecond

// Runner owns one analysis session's poll loop.
type Runner struct {
	cfg     *config.Config
	session *analysis.Session
	history *analysis.BandHistory
	axis    dsp.Axis

	transports []transport.Transport

	mu       sync.Mutex
	latest   transport.BandFrame
	hasFrame bool
}

// NewRunner creates a runner for the given session. The axis and band count
// come from the analysis configuration.
func NewRunner(cfg *config.Config, session *analysis.Session) *Runner {
	axis, ok := dsp.ParseAxis(cfg.Analysis.Axis)
	if !ok {
		applog.Warnf("Runner: unknown axis %q, using logarithmic", cfg.Analysis.Axis)
	}
	return &Runner{
		cfg:     cfg,
		session: session,
		history: analysis.NewBandHistory(cfg.Analysis.HistoryCapacity),
		axis:    axis,
	}
}

// AddTransport registers a frame consumer. Not safe to call once the loop is
// running.
func (r *Runner) AddTransport(t transport.Transport) {
	r.transports = append(r.transports, t)
}

// History returns the spectrogram retention buffer.
func (r *Runner) History() *analysis.BandHistory {
	return r.history
}

// LatestFrame returns the most recent frame, for pull-based consumers like
// the UDP publisher.
func (r *Runner) LatestFrame() (transport.BandFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, r.hasFrame
}

// RunLive polls the session at display rate until ctx is canceled.
func (r *Runner) RunLive(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.pollOnce()
		}
	}
}

// RunClip replays a decoded clip through feed, polling the session once per
// chunk. With realtime set, chunks are paced at their natural duration so
// transports see the same cadence a live stream would produce; otherwise the
// clip is analyzed as fast as possible.
func (r *Runner) RunClip(ctx context.Context, clip *source.Clip, feed func([]int32), realtime bool) error {
	chunk := r.session.TransformSize()
	chunkDuration := time.Duration(float64(chunk) / clip.SampleRate * float64(time.Second))

	var err error
	clip.Chunks(chunk, func(samples []int32) bool {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return false
		default:
		}

		feed(samples)
		r.pollOnce()
		if realtime {
			time.Sleep(chunkDuration)
		}
		return true
	})
	return err
}

// pollOnce runs one poll/draw cycle: map bands, detect pitch (throttled by
// the session), retain, broadcast.
func (r *Runner) pollOnce() transport.BandFrame {
	bands := r.session.MapToBands(r.cfg.Analysis.Bands, r.axis)
	frame := transport.BandFrame{
		Bands:     bands,
		Pitch:     r.session.DetectPitch(),
		Axis:      r.axis.String(),
		Timestamp: time.Now().UnixNano(),
	}

	r.history.Push(bands)

	r.mu.Lock()
	r.latest = frame
	r.hasFrame = true
	r.mu.Unlock()

	for _, t := range r.transports {
		if err := t.Send(frame); err != nil {
			applog.Debugf("Runner: transport send: %v", err)
		}
	}
	return frame
}
