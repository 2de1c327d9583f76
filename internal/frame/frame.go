// SPDX-License-Identifier: MIT
/*
Package frame defines the AudioFrame handed from the analysis goroutine to
the rendering side, and the Channel that carries it.

An AudioFrame is a plain value: it is built once per analysis window, sent
once, and owned by whoever receives it. Nothing in it is shared, so frames
can cross goroutines without locks.
*/
package frame

const (
	// BucketCount is the number of fixed-width frequency buckets in a frame.
	BucketCount = 200
	// BucketWidthHz is the width of one bucket. 200 buckets cover 0-20kHz.
	BucketWidthHz = 100
)

// AudioFrame is the per-window feature vector consumed by renderers.
//
// LowPower, MidPower and HighPower are clamped to [0, 1]. HundredHzBuckets
// holds raw amplitude sums and is NOT clamped; consumers that need a bounded
// value must normalize it themselves.
type AudioFrame struct {
	BPM              float32              `json:"bpm"` // always zero, beat detection is not implemented
	LowPower         float32              `json:"low_power"`
	MidPower         float32              `json:"mid_power"`
	HighPower        float32              `json:"high_power"`
	HundredHzBuckets [BucketCount]float32 `json:"hundred_hz_buckets"`
}

// BucketIndex returns the bucket a frequency falls into, and false when the
// frequency lies outside [0, BucketCount*BucketWidthHz).
func BucketIndex(frequencyHz float32) (int, bool) {
	// Bound the float before converting; int(+Inf) is undefined.
	if !(frequencyHz >= 0) || frequencyHz >= BucketCount*BucketWidthHz {
		return 0, false
	}
	return min(int(frequencyHz/BucketWidthHz), BucketCount-1), true
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
