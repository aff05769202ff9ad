// SPDX-License-Identifier: MIT
package analysis

// BandHistory retains the most recent display band snapshots for spectrogram
// consumers: a fixed-length queue where pushing beyond capacity evicts the
// oldest snapshot. The mapper itself is stateless; this is the one piece of
// retained display state, and it is owned by whoever draws the spectrogram.
type BandHistory struct {
	frames [][]float64
	head   int // index of the oldest frame
	count  int
}

// NewBandHistory creates a history retaining up to capacity snapshots.
// capacity < 1 is clamped to 1.
func NewBandHistory(capacity int) *BandHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &BandHistory{frames: make([][]float64, capacity)}
}

// Push appends a copy of bands, evicting the oldest snapshot when full.
func (h *BandHistory) Push(bands []float64) {
	snapshot := make([]float64, len(bands))
	copy(snapshot, bands)

	if h.count < len(h.frames) {
		h.frames[(h.head+h.count)%len(h.frames)] = snapshot
		h.count++
		return
	}
	h.frames[h.head] = snapshot
	h.head = (h.head + 1) % len(h.frames)
}

// Len returns the number of retained snapshots.
func (h *BandHistory) Len() int {
	return h.count
}

// Cap returns the retention capacity.
func (h *BandHistory) Cap() int {
	return len(h.frames)
}

// Frames returns the retained snapshots ordered oldest to newest. The
// returned slice is freshly allocated; the snapshots themselves are shared
// and must be treated as read-only.
func (h *BandHistory) Frames() [][]float64 {
	out := make([][]float64, h.count)
	for i := range out {
		out[i] = h.frames[(h.head+i)%len(h.frames)]
	}
	return out
}
