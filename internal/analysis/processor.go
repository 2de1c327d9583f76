// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"audioviz/internal/config"
	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// WindowProcessor consumes complete analysis windows. Window schedulers call
// it once per window from the producer goroutine.
type WindowProcessor interface {
	// Window analyzes one window of mono samples in [-1, 1]. A non-nil error
	// ends the scheduler loop; frame.ErrDisconnected ends it cleanly.
	Window(samples []float32, sampleRate float64) error
}

// FrameSender accepts finished frames. *frame.Channel satisfies it.
type FrameSender interface {
	Send(f frame.AudioFrame) error
}

// Options configures an Analyzer.
type Options struct {
	Backend     Backend
	Window      WindowFunc
	Thresholds  Thresholds
	AutoGain    bool    // Adapt the scalar per window; false keeps InitialGain.
	GainHistory int     // AGC history capacity.
	GainTarget  float32 // AGC target mean amplitude.
	InitialGain float32 // Scalar applied before the AGC has observed anything.
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Backend:     BackendGonum,
		Window:      NoWindow,
		Thresholds:  DefaultThresholds(),
		AutoGain:    config.DefaultAutoGain,
		GainHistory: config.DefaultGainHistory,
		GainTarget:  config.DefaultGainTarget,
		InitialGain: config.DefaultAmplitudeScalar,
	}
}

// OptionsFromConfig builds Options from a validated configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	backend, err := ParseBackend(cfg.Analysis.FFTBackend)
	if err != nil {
		return Options{}, err
	}
	win, err := ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Backend: backend,
		Window:  win,
		Thresholds: Thresholds{
			LowHz:  float32(cfg.Analysis.LowThresholdHz),
			MidHz:  float32(cfg.Analysis.MidThresholdHz),
			HighHz: float32(cfg.Analysis.HighThresholdHz),
		},
		AutoGain:    cfg.Analysis.AutoGain,
		GainHistory: cfg.Analysis.GainHistory,
		GainTarget:  float32(cfg.Analysis.GainTarget),
		InitialGain: float32(cfg.Audio.AmplitudeScalar),
	}
	return opts, opts.Thresholds.Validate()
}

// Analyzer turns windows into AudioFrames: spectrum, band aggregation with
// the current gain, then a gain update from the window's raw mean amplitude.
// The updated scalar applies from the next window on.
type Analyzer struct {
	transform  *Transform
	aggregator *BandAggregator
	gain       *GainController // nil when auto gain is off
	fixedGain  float32
	sink       FrameSender

	bins    []Bin
	windows uint64
}

var _ WindowProcessor = (*Analyzer)(nil)

// NewAnalyzer creates an Analyzer that sends every frame to sink.
func NewAnalyzer(opts Options, sink FrameSender) (*Analyzer, error) {
	if sink == nil {
		return nil, fmt.Errorf("analyzer requires a frame sink")
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		transform:  NewTransform(opts.Backend, opts.Window),
		aggregator: NewBandAggregator(opts.Thresholds),
		fixedGain:  opts.InitialGain,
		sink:       sink,
	}
	if opts.AutoGain {
		a.gain = NewGainController(opts.GainHistory, opts.GainTarget, opts.InitialGain)
	}

	applog.Infof("Analysis: backend=%s window=%s thresholds=%.0f/%.0f/%.0f Hz auto_gain=%t",
		opts.Backend, opts.Window, opts.Thresholds.LowHz, opts.Thresholds.MidHz, opts.Thresholds.HighHz, opts.AutoGain)
	return a, nil
}

// Analyze computes the frame for one window and advances the gain loop.
func (a *Analyzer) Analyze(samples []float32, sampleRate float64) frame.AudioFrame {
	a.bins = a.transform.ComputeInto(a.bins, samples, sampleRate, 1)

	scalar := a.Scalar()
	f := a.aggregator.Aggregate(a.bins, scalar)

	if a.gain != nil {
		a.gain.Observe(MeanAmplitude(a.bins))
	}
	a.windows++

	applog.Debugf("Analysis: window %d n=%d gain=%.3f low=%.3f mid=%.3f high=%.3f",
		a.windows, len(samples), scalar, f.LowPower, f.MidPower, f.HighPower)
	return f
}

// Window implements WindowProcessor.
func (a *Analyzer) Window(samples []float32, sampleRate float64) error {
	return a.sink.Send(a.Analyze(samples, sampleRate))
}

// Scalar returns the gain that the next window will be scaled by.
func (a *Analyzer) Scalar() float32 {
	if a.gain != nil {
		return a.gain.Scalar()
	}
	return a.fixedGain
}

// Windows returns the number of windows analyzed.
func (a *Analyzer) Windows() uint64 { return a.windows }
