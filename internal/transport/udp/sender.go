// SPDX-License-Identifier: MIT

// Package udp streams frames as compact binary packets, e.g. to LED
// controllers on the local network.
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	applog "audioviz/internal/log"
)

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("UDP sender is closed")

// UDPSender handles sending data packets over UDP.
type UDPSender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex // Protects conn during Close
	closed     bool
}

// NewUDPSender creates a new UDPSender targeting the specified address,
// e.g. "127.0.0.1:9090".
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// No local port binding is needed for sending.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("UDP Sender: Connection established to %s", conn.RemoteAddr())

	return &UDPSender{
		conn:       conn,
		targetAddr: udpAddr,
	}, nil
}

// Target returns the resolved destination address.
func (s *UDPSender) Target() *net.UDPAddr { return s.targetAddr }

// Send transmits data as one UDP packet.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSenderClosed
	}
	if _, err := s.conn.Write(data); err != nil {
		applog.Debugf("UDP Sender: Error sending packet: %v", err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	applog.Debugf("UDP Sender: Closing connection to %s", s.conn.RemoteAddr())
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}
