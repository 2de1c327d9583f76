// SPDX-License-Identifier: MIT

// Package transport delivers AudioFrames from the frame channel to the
// consumers that render or forward them.
package transport

import (
	"context"
	"errors"

	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// Sink consumes frames. Implementations must not block for long; the
// consumer loop calls every sink in turn for each frame.
type Sink interface {
	Send(f frame.AudioFrame) error
	Close() error
}

// Source is the consumer end of a frame channel. *frame.Channel satisfies it.
type Source interface {
	Recv(ctx context.Context) (frame.AudioFrame, error)
	Disconnect()
}

// Consume receives frames from src and hands each to every sink until the
// producer closes the channel or ctx is done. A closed channel is the normal
// end of the stream and returns nil. On return src is disconnected so the
// producer stops too. Sink errors are logged and do not stop the loop.
func Consume(ctx context.Context, src Source, sinks ...Sink) error {
	defer src.Disconnect()

	var received uint64
	for {
		f, err := src.Recv(ctx)
		if err != nil {
			if errors.Is(err, frame.ErrClosed) {
				applog.Debugf("Transport: frame channel closed after %d frames", received)
				return nil
			}
			return err
		}
		received++

		for _, s := range sinks {
			if err := s.Send(f); err != nil {
				applog.Debugf("Transport: sink %T rejected frame %d: %v", s, received, err)
			}
		}
	}
}

// CloseAll closes every sink and joins their errors.
func CloseAll(sinks ...Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
