// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"audioviz/internal/analysis"
	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// Track is a fully decoded mono recording.
type Track struct {
	Samples    []float32
	Duration   time.Duration
	SampleRate int
}

// SamplesPerSecond derives the effective rate from the sample count and the
// duration, which is what playback pacing uses.
func (t Track) SamplesPerSecond() float64 {
	if t.Duration <= 0 {
		return 0
	}
	return float64(len(t.Samples)) / t.Duration.Seconds()
}

// Clock abstracts time for the playback scheduler.
type Clock interface {
	Now() time.Time
	// Sleep pauses for d. It returns early with ctx.Err() when ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// PlaybackStats summarizes a playback run.
type PlaybackStats struct {
	Windows      uint64
	DriftSamples int // Total extra samples added to catch up with wall time.
}

// PlaybackScheduler walks a decoded track in real time.
//
// Windows are non-overlapping and half-open: each starts where the previous
// one ended. After each window the scheduler sleeps for the nominal window
// duration and then measures how long the whole iteration took. Any excess
// over the nominal duration is converted to samples and added to the next
// window so window boundaries catch up with wall time. It never rewinds.
type PlaybackScheduler struct {
	proc   analysis.WindowProcessor
	window time.Duration
	clock  Clock
	stats  PlaybackStats
}

// NewPlaybackScheduler creates a scheduler with the given nominal window
// duration. A nil clock uses the wall clock.
func NewPlaybackScheduler(proc analysis.WindowProcessor, window time.Duration, clock Clock) *PlaybackScheduler {
	if clock == nil {
		clock = SystemClock()
	}
	return &PlaybackScheduler{proc: proc, window: window, clock: clock}
}

// DriftSamples converts a processing overrun to the number of samples the
// next window is extended by.
func DriftSamples(excess time.Duration, samplesPerSecond float64) int {
	if excess <= 0 {
		return 0
	}
	return int(math.Round(excess.Seconds() * samplesPerSecond))
}

// WindowSamples returns the nominal sample count of one window, at least 1.
func (p *PlaybackScheduler) WindowSamples(samplesPerSecond float64) int {
	return max(1, int(math.Round(samplesPerSecond*p.window.Seconds())))
}

// Run plays track until it is exhausted, ctx is done or the consumer goes
// away. A vanished consumer returns nil.
func (p *PlaybackScheduler) Run(ctx context.Context, track Track) error {
	p.stats = PlaybackStats{}

	n := len(track.Samples)
	if n == 0 {
		return nil
	}
	if track.Duration <= 0 {
		return fmt.Errorf("track duration must be positive, got %v", track.Duration)
	}
	if p.window <= 0 {
		return fmt.Errorf("window duration must be positive, got %v", p.window)
	}

	sps := track.SamplesPerSecond()
	windowSamples := p.WindowSamples(sps)
	applog.Infof("Playback: %d samples over %v (%.1f samples/s), %d samples per %v window",
		n, track.Duration, sps, windowSamples, p.window)

	extra := 0
	for start := 0; start < n; {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+windowSamples+extra, n)
		began := p.clock.Now()

		if err := p.proc.Window(track.Samples[start:end], sps); err != nil {
			if errors.Is(err, frame.ErrDisconnected) {
				applog.Infof("Playback: frame consumer gone after %d windows", p.stats.Windows)
				return nil
			}
			return err
		}
		p.stats.Windows++

		if err := p.clock.Sleep(ctx, p.window); err != nil {
			return err
		}

		excess := p.clock.Now().Sub(began) - p.window
		extra = DriftSamples(excess, sps)
		p.stats.DriftSamples += extra
		if extra > 0 {
			applog.Debugf("Playback: window %d overran by %v, extending next window by %d samples",
				p.stats.Windows, excess, extra)
		}

		start = end
	}

	applog.Debugf("Playback: finished, %d windows, %d drift samples", p.stats.Windows, p.stats.DriftSamples)
	return nil
}

// Stats returns the statistics of the most recent Run.
func (p *PlaybackScheduler) Stats() PlaybackStats { return p.stats }
