// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"

	"audioviz/internal/frame"
)

// Thresholds are the ascending upper edges (inclusive) of the low, mid and
// high bands. Bins above HighHz contribute to no band.
type Thresholds struct {
	LowHz  float32
	MidHz  float32
	HighHz float32
}

// DefaultThresholds returns 1000/6000/20000 Hz.
func DefaultThresholds() Thresholds {
	return Thresholds{LowHz: 1000, MidHz: 6000, HighHz: 20000}
}

// Validate reports thresholds that are not strictly ascending and positive.
func (t Thresholds) Validate() error {
	if t.LowHz <= 0 {
		return errors.New("low threshold must be positive")
	}
	if t.MidHz <= t.LowHz || t.HighHz <= t.MidHz {
		return fmt.Errorf("thresholds must be ascending, got %.0f/%.0f/%.0f Hz", t.LowHz, t.MidHz, t.HighHz)
	}
	return nil
}

// BandAggregator reduces a spectrum to the coarse bands and hundred-Hz
// buckets of an AudioFrame.
type BandAggregator struct {
	thresholds Thresholds
}

// NewBandAggregator creates an aggregator for the given thresholds.
func NewBandAggregator(thresholds Thresholds) *BandAggregator {
	return &BandAggregator{thresholds: thresholds}
}

// Thresholds returns the band edges in use.
func (a *BandAggregator) Thresholds() Thresholds { return a.thresholds }

// Aggregate sums gain-scaled bin amplitudes into bands and buckets.
//
// Band sums are truncated to [0, 1]. Buckets are raw sums and may exceed 1;
// bins at or above 20 kHz have no bucket and are skipped.
func (a *BandAggregator) Aggregate(bins []Bin, gain float32) frame.AudioFrame {
	var (
		out            frame.AudioFrame
		low, mid, high float32
	)

	for _, b := range bins {
		amp := b.Amplitude * gain

		switch f := b.FrequencyHz; {
		case f <= a.thresholds.LowHz:
			low += amp
		case f <= a.thresholds.MidHz:
			mid += amp
		case f <= a.thresholds.HighHz:
			high += amp
		}

		if idx, ok := frame.BucketIndex(b.FrequencyHz); ok {
			out.HundredHzBuckets[idx] += amp
		}
	}

	out.LowPower = frame.Clamp01(low)
	out.MidPower = frame.Clamp01(mid)
	out.HighPower = frame.Clamp01(high)
	return out
}
