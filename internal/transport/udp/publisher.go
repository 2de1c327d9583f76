// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// UDPPublisher sends the most recent frame over UDP at a fixed rate.
//
// Send only records the frame; a ticker goroutine packs and transmits it, so
// the consumer loop never waits on the network. A tick with no new frame
// since the last packet sends nothing.
type UDPPublisher struct {
	sender   *UDPSender
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Closed to stop the publisher goroutine.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	latestMu sync.Mutex
	latest   frame.AudioFrame
	fresh    bool

	sequenceNum  uint32
	packetBuffer *bytes.Buffer // Reused for every packet.
	now          func() time.Time
}

// NewUDPPublisher creates a publisher sending through sender. An interval
// <= 0 defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s, Packet: %d bytes)", interval, PacketSize)

	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, PacketSize)),
		now:          time.Now,
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Local copies keep the goroutine off p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.publishLatest()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop terminates the publishing goroutine and waits for it to exit.
func (p *UDPPublisher) Stop() error {
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
	applog.Debugf("UDPPublisher: stopped after %d packets", p.sequenceNum)
	return nil
}

// Send records f as the frame for the next tick.
func (p *UDPPublisher) Send(f frame.AudioFrame) error {
	p.latestMu.Lock()
	p.latest = f
	p.fresh = true
	p.latestMu.Unlock()
	return nil
}

func (p *UDPPublisher) publishLatest() {
	p.latestMu.Lock()
	if !p.fresh {
		p.latestMu.Unlock()
		return
	}
	f := p.latest
	p.fresh = false
	p.latestMu.Unlock()

	p.sequenceNum++
	p.packetBuffer.Reset()
	if err := EncodePacket(p.packetBuffer, p.sequenceNum, p.now().UnixNano(), f); err != nil {
		applog.Errorf("UDPPublisher: Error packing frame: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close stops the publisher and closes its sender.
func (p *UDPPublisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}
