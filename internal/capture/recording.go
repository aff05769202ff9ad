// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "github.com/tkm427/spectrum-analyzer/internal/log"
)

// recorder bundles the WAV encoder state for a live recording.
type recorder struct {
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *audio.IntBuffer
}

// write appends one buffer of int32 samples through the reusable IntBuffer.
func (r *recorder) write(samples []int32) {
	for i, s := range samples {
		r.sampleBuf.Data[i] = int(s)
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	if err := r.encoder.Write(r.sampleBuf); err != nil {
		applog.Errorf("Capture: WAV write failed: %v", err)
	}
}

// StartRecording begins writing the raw input stream to a 32-bit WAV file.
// Analysis keeps running; recording taps the same callback buffer.
func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	e.recorder = &recorder{
		file:    file,
		encoder: wav.NewEncoder(file, int(e.cfg.Audio.SampleRate), 32, e.cfg.Audio.Channels, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: e.cfg.Audio.Channels,
				SampleRate:  int(e.cfg.Audio.SampleRate),
			},
			Data: make([]int, len(e.inputBuffer)),
		},
	}

	atomic.StoreInt32(&e.isRecording, 1)
	applog.Infof("Capture: recording to %s", filename)
	return nil
}

// StopRecording finalizes the WAV file. Safe to call when not recording.
func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&e.isRecording, 0)

	r := e.recorder
	e.recorder = nil
	if r == nil {
		return nil
	}
	if err := r.encoder.Close(); err != nil {
		return err
	}
	return r.file.Close()
}
