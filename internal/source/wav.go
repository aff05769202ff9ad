// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// LoadWAV decodes a PCM WAV file into a mono clip. Multi-channel files are
// mixed down by averaging; samples are rescaled from the source bit depth to
// the int32 range used by the analysis pipeline.
func LoadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("WAV %s has no channel information", path)
	}

	channels := buf.Format.NumChannels
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("WAV %s has unsupported bit depth %d", path, bitDepth)
	}
	// Shift amount rescaling source samples to int32 full scale.
	shift := uint(32 - bitDepth)

	frames := len(buf.Data) / channels
	samples := make([]int32, frames)
	for i := range samples {
		var sum int64
		for ch := range channels {
			sum += int64(buf.Data[i*channels+ch])
		}
		samples[i] = int32((sum / int64(channels)) << shift)
	}

	return &Clip{
		Samples:    samples,
		SampleRate: float64(buf.Format.SampleRate),
	}, nil
}
