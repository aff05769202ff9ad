// SPDX-License-Identifier: MIT
/*
Package source decodes audio files into mono int32 sample clips that can be
replayed through the transform provider, giving the analyzer the same view
of a file it has of a live input stream.
*/
package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Clip is a fully decoded, mono-mixed audio file.
type Clip struct {
	Samples    []int32
	SampleRate float64
}

// Load decodes the file at path, dispatching on its extension.
// WAV and MP3 are supported.
func Load(path string) (*Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return LoadWAV(path)
	case ".mp3":
		return LoadMP3(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / c.SampleRate
}

// Chunks calls fn for each consecutive chunk of the given size. The final
// partial chunk is delivered as-is; the provider zero pads it. fn returning
// false stops the iteration early.
func (c *Clip) Chunks(size int, fn func(chunk []int32) bool) {
	if size < 1 {
		return
	}
	for start := 0; start < len(c.Samples); start += size {
		end := start + size
		if end > len(c.Samples) {
			end = len(c.Samples)
		}
		if !fn(c.Samples[start:end]) {
			return
		}
	}
}
