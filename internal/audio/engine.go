// SPDX-License-Identifier: MIT
/*
Package audio turns live or decoded audio into AudioFrames.

An Engine owns the producer side of the pipeline: a window scheduler (live
capture or real-time file playback), the analyzer that turns each window
into a frame, and the frame channel that hands frames to a single consumer.
Every Run method closes the channel when its producer loop ends, so the
consumer sees a normal termination.
*/
package audio

import (
	"context"
	"errors"
	"time"

	"audioviz/internal/analysis"
	"audioviz/internal/config"
	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// Engine wires configuration to the producer pipeline.
type Engine struct {
	config   *config.Config
	frames   *frame.Channel
	analyzer *analysis.Analyzer
	clock    Clock

	playback *PlaybackScheduler
}

// NewEngine builds the analyzer and frame channel described by cfg.
func NewEngine(cfg *config.Config) (*Engine, error) {
	opts, err := analysis.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	frames := frame.NewChannel(cfg.Frames.DropOldestOnFull)
	analyzer, err := analysis.NewAnalyzer(opts, frames)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:   cfg,
		frames:   frames,
		analyzer: analyzer,
		clock:    SystemClock(),
	}, nil
}

// Frames returns the channel the engine produces into.
func (e *Engine) Frames() *frame.Channel { return e.frames }

// ChannelMode names the frame channel's overflow policy.
func (e *Engine) ChannelMode() string {
	if e.frames.DropOldest() {
		return "latest-only"
	}
	return "unbounded"
}

// Analyzer returns the engine's analyzer.
func (e *Engine) Analyzer() *analysis.Analyzer { return e.analyzer }

// RunCapture captures from the configured input device until ctx is done or
// the consumer disconnects. Device failures wrap ErrDeviceOpen.
func (e *Engine) RunCapture(ctx context.Context) (err error) {
	defer e.frames.Close()

	if err := Initialize(); err != nil {
		return errors.Join(ErrDeviceOpen, err)
	}
	defer func() {
		err = errors.Join(err, Terminate())
	}()

	stream, err := OpenInputStream(e.config.Audio.InputDevice,
		float64(e.config.Audio.SamplesPerSecond), e.config.Audio.WindowSampleSize)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			applog.Warnf("Audio: closing input stream: %v", cerr)
		}
	}()

	return e.capture(ctx, stream)
}

// RunCaptureFrom runs the capture pipeline against an arbitrary reader.
func (e *Engine) RunCaptureFrom(ctx context.Context, reader SampleReader) error {
	defer e.frames.Close()
	return e.capture(ctx, reader)
}

func (e *Engine) capture(ctx context.Context, reader SampleReader) (err error) {
	a := e.config.Audio
	sched := NewCaptureScheduler(reader, e.analyzer, a.WindowSampleSize, float64(a.SamplesPerSecond), a.ReadBackoff)

	if a.Record {
		name := a.OutputFile
		if name == "" {
			name = DefaultRecordingName(time.Now())
		}
		rec, rerr := NewRecorder(name, a.SamplesPerSecond)
		if rerr != nil {
			return rerr
		}
		defer func() {
			err = errors.Join(err, rec.Close())
			applog.Infof("Audio: recorded %d samples to %s", rec.Samples(), rec.Name())
		}()
		sched.SetTee(rec)
	}

	applog.Debugf("Audio: capturing %d-sample windows into a %s frame channel",
		a.WindowSampleSize, e.ChannelMode())
	err = sched.Run(ctx)
	applog.Debugf("Audio: capture stopped after %d windows, %d frames dropped",
		sched.Windows(), e.frames.Dropped())
	return err
}

// RunPlayback streams track through the analyzer in real time.
func (e *Engine) RunPlayback(ctx context.Context, track Track) error {
	defer e.frames.Close()

	e.playback = NewPlaybackScheduler(e.analyzer, e.config.Playback.WindowDuration, e.clock)
	applog.Debugf("Playback: %s windows into a %s frame channel",
		e.config.Playback.WindowDuration, e.ChannelMode())
	err := e.playback.Run(ctx, track)

	stats := e.playback.Stats()
	applog.Infof("Playback: %d windows, %d drift samples, %d frames dropped",
		stats.Windows, stats.DriftSamples, e.frames.Dropped())
	return err
}

// PlaybackStats returns the statistics of the last RunPlayback.
func (e *Engine) PlaybackStats() PlaybackStats {
	if e.playback == nil {
		return PlaybackStats{}
	}
	return e.playback.Stats()
}

// RunFake emits synthetic frames instead of analyzing audio.
func (e *Engine) RunFake(ctx context.Context) error {
	defer e.frames.Close()
	applog.Info("Audio: using fake audio source")
	return NewFakeSource(e.config.Audio.FakeInterval, 0).Run(ctx, e.frames)
}
