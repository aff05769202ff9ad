// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "github.com/tkm427/spectrum-analyzer/internal/log"
	"github.com/tkm427/spectrum-analyzer/internal/transport"
)

// FrameFunc returns the latest band frame to publish. ok=false means no
// frame is available yet and nothing is sent this tick.
type FrameFunc func() (transport.BandFrame, bool)

// Publisher periodically fetches the latest band frame, packs it into a
// binary packet, and sends it over UDP. It runs in its own goroutine between
// Start and Stop; the poll loop never blocks on the network.
//
// Packet layout (big-endian):
//
//	uint32  sequence number
//	int64   timestamp, unix nanoseconds
//	float32 pitch estimate in Hz (0 = undetermined)
//	uint16  band count N
//	N x float32 band intensities
type Publisher struct {
	sender   *Sender
	frame    FrameFunc
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a publisher pulling frames from frame at the given
// interval. Invalid intervals default to 33ms (~30 Hz).
func NewPublisher(interval time.Duration, sender *Sender, frame FrameFunc) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDP publisher requires a sender")
	}
	if frame == nil {
		return nil, fmt.Errorf("UDP publisher requires a frame source")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("UDP: invalid publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		frame:        frame,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publish goroutine. Calling Start on a running publisher
// is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDP: publisher started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publish goroutine to exit and waits for it. Idempotent.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.Stop()
}

func (p *Publisher) publish() {
	frame, ok := p.frame()
	if !ok {
		return
	}

	p.sequenceNum++
	p.packetBuffer.Reset()
	if err := encodeFrame(p.packetBuffer, p.sequenceNum, frame); err != nil {
		applog.Errorf("UDP: packet encode failed: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Debugf("UDP: send failed: %v", err)
	}
}

// encodeFrame writes the binary packet for one frame into buf.
func encodeFrame(buf *bytes.Buffer, seq uint32, frame transport.BandFrame) error {
	if err := binary.Write(buf, binary.BigEndian, seq); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, frame.Timestamp); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, float32(frame.Pitch)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(frame.Bands))); err != nil {
		return err
	}
	for _, b := range frame.Bands {
		if err := binary.Write(buf, binary.BigEndian, float32(b)); err != nil {
			return err
		}
	}
	return nil
}
