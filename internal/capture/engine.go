// SPDX-License-Identifier: MIT
/*
Package capture owns the live input side of the analyzer: a PortAudio input
stream whose callback mono-mixes and gates the incoming samples before
feeding them to the transform provider, plus optional WAV recording of the
raw input.
*/
package capture

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/tkm427/spectrum-analyzer/internal/config"
	"github.com/tkm427/spectrum-analyzer/internal/fft"
	applog "github.com/tkm427/spectrum-analyzer/internal/log"
)

// Engine drives a PortAudio input stream into an fft.Provider.
type Engine struct {
	cfg *config.Config

	inputBuffer []int32
	monoBuffer  []int32
	device      *portaudio.DeviceInfo
	latency     time.Duration
	stream      *portaudio.Stream

	provider *fft.Provider

	gateEnabled   bool
	gateThreshold int32 // absolute int32 amplitude; buffers below it skip analysis

	// Recording state; isRecording is atomic because StopRecording can race
	// with the stream callback.
	isRecording int32
	recorder    *recorder
}

// NewEngine creates an engine that feeds the given provider. The provider's
// transform size also fixes the stream buffer size, so every callback
// delivers exactly one transform worth of samples.
func NewEngine(cfg *config.Config, provider *fft.Provider) (*Engine, error) {
	device, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	frames := provider.Size()
	e := &Engine{
		cfg:           cfg,
		inputBuffer:   make([]int32, frames*cfg.Audio.Channels),
		monoBuffer:    make([]int32, frames),
		device:        device,
		provider:      provider,
		gateEnabled:   true,
		gateThreshold: 2147483647 / 1000, // ~0.1% of full scale
	}

	if cfg.Audio.LowLatency {
		e.latency = device.DefaultLowInputLatency
	} else {
		e.latency = device.DefaultHighInputLatency
	}

	return e, nil
}

// Start opens and starts the input stream. The PortAudio callback begins
// firing as soon as this returns.
func (e *Engine) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.Audio.Channels,
			Device:   e.device,
			Latency:  e.latency,
		},
		FramesPerBuffer: e.provider.Size(),
		SampleRate:      e.cfg.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInput)
	if err != nil {
		return err
	}
	e.stream = stream

	if err := e.stream.Start(); err != nil {
		e.stream.Close()
		e.stream = nil
		return err
	}

	applog.Infof("Capture: input stream started (%s, %.0f Hz, %d frames/buffer)",
		e.device.Name, e.cfg.Audio.SampleRate, e.provider.Size())
	return nil
}

// Stop stops and closes the input stream.
func (e *Engine) Stop() error {
	if e.stream == nil {
		return nil
	}
	if err := e.stream.Stop(); err != nil {
		return err
	}
	if err := e.stream.Close(); err != nil {
		return err
	}
	e.stream = nil
	return nil
}

// Close stops recording if active and shuts the stream down.
func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}
	return e.Stop()
}

// processInput is the PortAudio callback. It runs on a dedicated OS thread
// with pre-allocated buffers only; nothing here may allocate or block.
func (e *Engine) processInput(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)

	if atomic.LoadInt32(&e.isRecording) == 1 && e.recorder != nil {
		e.recorder.write(e.inputBuffer)
	}

	if e.gateEnabled && maxAmplitude(e.inputBuffer) <= e.gateThreshold {
		return
	}

	buffer := e.inputBuffer
	if e.cfg.Audio.Channels > 1 {
		e.monoMix()
		buffer = e.monoBuffer
	}
	e.provider.Feed(buffer)
}

// monoMix copies the first channel of the interleaved input into the mono
// buffer.
func (e *Engine) monoMix() {
	channels := e.cfg.Audio.Channels
	for i := range e.monoBuffer {
		idx := i * channels
		if idx < len(e.inputBuffer) {
			e.monoBuffer[i] = e.inputBuffer[idx]
		} else {
			e.monoBuffer[i] = 0
		}
	}
}

// maxAmplitude returns the peak absolute sample value. Branchless: abs via
// sign mask, max via masked add, keeping the callback free of unpredictable
// branches.
func maxAmplitude(buffer []int32) int32 {
	var peak int32
	for i := range buffer {
		sample := buffer[i]
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - peak
		peak += (diff & (diff >> 31)) ^ diff
	}
	return peak
}
