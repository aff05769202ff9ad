// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestSenderLoopback(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := sender.Send(payload); err != nil {
		t.Fatal(err)
	}

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Errorf("received %x, want %x", buf[:n], payload)
	}
}

func TestSenderClosedSend(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.Close(); err != nil {
		t.Fatal(err)
	}
	// Idempotent.
	if err := sender.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sender.Send([]byte{1}); err == nil {
		t.Error("Send succeeded on a closed sender")
	}
}

func TestSenderBadAddress(t *testing.T) {
	if _, err := NewSender("not-an-address"); err == nil {
		t.Error("NewSender accepted a malformed address")
	}
}
