// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and sinks shared by tests across the
// analysis, audio and transport packages.
package utils

import (
	"math"
	"sync"

	"audioviz/internal/frame"
)

// GenerateSineWave returns size samples of a sine at frequency Hz with the
// given peak amplitude, sampled at sampleRate.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental with two harmonics, scaled
// to stay inside [-0.9, 0.9].
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GeneratePCM16 converts float samples in [-1, 1] to 16-bit PCM, the format a
// capture device delivers.
func GeneratePCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * math.MaxInt16)
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}

// FindPeakBin returns the index of the largest value in
// amplitudes[startBin:endBin+1]. Out-of-range bounds are clamped.
func FindPeakBin(amplitudes []float32, startBin, endBin int) int {
	if len(amplitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(amplitudes) {
		endBin = len(amplitudes) - 1
	}

	peakBin := startBin
	peakValue := amplitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if amplitudes[bin] > peakValue {
			peakValue = amplitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// FrameRecorder collects every frame sent to it. It satisfies the frame sink
// interfaces used by the analyzer and the transport consumer loop.
type FrameRecorder struct {
	mu     sync.Mutex
	frames []frame.AudioFrame
	// Err, when set, is returned from every Send after the frame is stored.
	Err error
	// Limit, when positive, makes Send return frame.ErrDisconnected once
	// that many frames have been stored.
	Limit int
}

// Send stores f.
func (r *FrameRecorder) Send(f frame.AudioFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Limit > 0 && len(r.frames) >= r.Limit {
		return frame.ErrDisconnected
	}
	r.frames = append(r.frames, f)
	return r.Err
}

// Close is a no-op so the recorder can stand in for a transport.
func (r *FrameRecorder) Close() error { return nil }

// Frames returns a copy of the frames received so far.
func (r *FrameRecorder) Frames() []frame.AudioFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]frame.AudioFrame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Len returns the number of frames received so far.
func (r *FrameRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
