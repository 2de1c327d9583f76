// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// LoggingTransport writes a one-line summary of each frame at debug level.
// It is the consumer used when no other sink is enabled, so frames are
// still drained and visible with --verbose.
type LoggingTransport struct {
	count atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Info("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs f.
func (lt *LoggingTransport) Send(f frame.AudioFrame) error {
	n := lt.count.Add(1)

	peak, peakValue := 0, float32(0)
	for i, v := range f.HundredHzBuckets {
		if v > peakValue {
			peak, peakValue = i, v
		}
	}

	applog.Debugf("LOG_TRANSPORT: #%d low=%.3f mid=%.3f high=%.3f peak=%d-%dHz (%.3f)",
		n, f.LowPower, f.MidPower, f.HighPower,
		peak*frame.BucketWidthHz, (peak+1)*frame.BucketWidthHz, peakValue)
	return nil
}

// Frames returns the number of frames logged.
func (lt *LoggingTransport) Frames() uint64 { return lt.count.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called after %d frames.", lt.count.Load())
	return nil
}

var _ Sink = (*LoggingTransport)(nil)
