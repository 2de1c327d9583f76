// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"audioviz/internal/analysis"
	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// FakeSource emits random frames at a fixed interval. It stands in for the
// whole capture and analysis pipeline when exercising consumers.
type FakeSource struct {
	interval time.Duration
	rng      *rand.Rand
}

// NewFakeSource creates a source ticking every interval. A zero seed picks a
// random one.
func NewFakeSource(interval time.Duration, seed uint64) *FakeSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &FakeSource{
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Frame returns one synthetic frame: powers and buckets in [0, 1), no beat.
func (s *FakeSource) Frame() frame.AudioFrame {
	f := frame.AudioFrame{
		LowPower:  s.rng.Float32(),
		MidPower:  s.rng.Float32(),
		HighPower: s.rng.Float32(),
	}
	for i := range f.HundredHzBuckets {
		f.HundredHzBuckets[i] = s.rng.Float32()
	}
	return f
}

// Run sends a frame every interval until ctx is done or the consumer goes
// away.
func (s *FakeSource) Run(ctx context.Context, sink analysis.FrameSender) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := sink.Send(s.Frame()); err != nil {
			if errors.Is(err, frame.ErrDisconnected) {
				applog.Infof("Audio: fake source stopping after %d frames", sent)
				return nil
			}
			return err
		}
		sent++
	}
}
