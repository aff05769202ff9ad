// SPDX-License-Identifier: MIT
package transport

// BandFrame is one poll cycle's worth of display data: the mapped band
// intensities plus the current pitch estimate.
type BandFrame struct {
	Bands     []float64 `json:"bands"`
	Pitch     float64   `json:"pitch"` // Hz, 0 when undetermined
	Axis      string    `json:"axis"`
	Timestamp int64     `json:"ts"` // unix nanoseconds
}

// Transport sends band frames to display consumers. Implementations must be
// safe to call from the poll loop without blocking it.
type Transport interface {
	Send(frame BandFrame) error
	Close() error
}
