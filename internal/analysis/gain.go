// SPDX-License-Identifier: MIT
package analysis

import "math"

// GainController is a slow automatic gain control loop. It keeps a FIFO
// history of per-window mean amplitudes and derives the scalar that would
// bring their average to a fixed target.
//
// The controller is owned by the producer goroutine and is not safe for
// concurrent use.
type GainController struct {
	history  []float32
	head     int // index of the oldest entry once the ring is full
	capacity int
	target   float32
	scalar   float32
}

// NewGainController creates a controller holding at most capacity
// observations that steers towards target, starting from initial.
func NewGainController(capacity int, target, initial float32) *GainController {
	if capacity < 1 {
		capacity = 1
	}
	return &GainController{
		history:  make([]float32, 0, capacity),
		capacity: capacity,
		target:   target,
		scalar:   initial,
	}
}

// Observe records the mean amplitude of one window and returns the scalar to
// apply to the next window. Zero, negative and non-finite observations are
// ignored so silent input holds the previous scalar.
func (g *GainController) Observe(mean float32) float32 {
	m := float64(mean)
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return g.scalar
	}

	if len(g.history) < g.capacity {
		g.history = append(g.history, mean)
	} else {
		g.history[g.head] = mean
		g.head = (g.head + 1) % g.capacity
	}

	var sum float64
	for _, v := range g.history {
		sum += float64(v)
	}

	avg := sum / float64(len(g.history))
	if avg > 0 {
		g.scalar = float32(float64(g.target) / avg)
	}
	return g.scalar
}

// Scalar returns the current amplitude scalar.
func (g *GainController) Scalar() float32 { return g.scalar }

// Len returns the number of observations in the history.
func (g *GainController) Len() int { return len(g.history) }

// Capacity returns the maximum history length.
func (g *GainController) Capacity() int { return g.capacity }
