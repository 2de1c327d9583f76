// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"audioviz/internal/analysis"
	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// PCMWriter receives a copy of every captured chunk, e.g. a Recorder.
type PCMWriter interface {
	Write(samples []int16) error
}

// CaptureScheduler cuts a live sample stream into fixed-size windows.
//
// Samples are appended to an accumulation buffer; whenever it holds at least
// windowSize samples, exactly that many are sliced off the front and handed
// to the processor. Windows do not overlap and the remainder carries over to
// the next read.
type CaptureScheduler struct {
	reader     SampleReader
	proc       analysis.WindowProcessor
	windowSize int
	sampleRate float64
	backoff    time.Duration
	tee        PCMWriter

	pending []float32
	windows uint64
}

// NewCaptureScheduler creates a scheduler reading from reader and feeding
// windowSize-sample windows to proc. backoff is the pause after a read that
// returned no samples.
func NewCaptureScheduler(reader SampleReader, proc analysis.WindowProcessor, windowSize int, sampleRate float64, backoff time.Duration) *CaptureScheduler {
	return &CaptureScheduler{
		reader:     reader,
		proc:       proc,
		windowSize: windowSize,
		sampleRate: sampleRate,
		backoff:    backoff,
		pending:    make([]float32, 0, 2*windowSize),
	}
}

// SetTee makes the scheduler copy each captured chunk to w before analysis.
func (s *CaptureScheduler) SetTee(w PCMWriter) { s.tee = w }

// Run reads until ctx is done, the reader fails or the consumer goes away.
// A vanished consumer is the normal shutdown path and returns nil.
func (s *CaptureScheduler) Run(ctx context.Context) error {
	if s.windowSize < 1 {
		return fmt.Errorf("window size must be positive, got %d", s.windowSize)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := s.reader.Read()
		if err != nil {
			return fmt.Errorf("capture read: %w", err)
		}

		if len(chunk) == 0 {
			if err := sleepContext(ctx, s.backoff); err != nil {
				return err
			}
			continue
		}

		if s.tee != nil {
			if err := s.tee.Write(chunk); err != nil {
				applog.Warnf("Audio: recording write failed, disabling recording: %v", err)
				s.tee = nil
			}
		}

		if err := s.Feed(chunk); err != nil {
			if errors.Is(err, frame.ErrDisconnected) {
				applog.Infof("Audio: frame consumer gone after %d windows, stopping capture", s.windows)
				return nil
			}
			return err
		}
	}
}

// Feed appends chunk to the accumulation buffer and processes every complete
// window it now holds.
func (s *CaptureScheduler) Feed(chunk []int16) error {
	s.pending = PCM16ToFloat(s.pending, chunk)

	off := 0
	for len(s.pending)-off >= s.windowSize {
		window := s.pending[off : off+s.windowSize]
		off += s.windowSize
		s.windows++
		if err := s.proc.Window(window, s.sampleRate); err != nil {
			s.compact(off)
			return err
		}
	}
	s.compact(off)
	return nil
}

func (s *CaptureScheduler) compact(off int) {
	if off == 0 {
		return
	}
	n := copy(s.pending, s.pending[off:])
	s.pending = s.pending[:n]
}

// Pending returns the number of samples waiting for a full window.
func (s *CaptureScheduler) Pending() int { return len(s.pending) }

// Windows returns the number of windows handed to the processor.
func (s *CaptureScheduler) Windows() uint64 { return s.windows }

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
