// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// LoadMP3 decodes an MP3 file into a mono clip. go-mp3 always emits 16-bit
// little-endian stereo PCM; the two channels are averaged and rescaled to
// int32 full scale.
func LoadMP3(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3 %s: %w", path, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 %s: %w", path, err)
	}

	// 4 bytes per stereo frame: two int16 little-endian samples.
	frames := len(raw) / 4
	samples := make([]int32, frames)
	for i := range samples {
		left := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		right := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		mono := (int32(left) + int32(right)) / 2
		samples[i] = mono << 16
	}

	return &Clip{
		Samples:    samples,
		SampleRate: float64(dec.SampleRate()),
	}, nil
}
