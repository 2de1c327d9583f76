// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGainControllerInitial(t *testing.T) {
	g := NewGainController(400, 0.01, 16)
	assert.Equal(t, float32(16), g.Scalar())
	assert.Zero(t, g.Len())
	assert.Equal(t, 400, g.Capacity())
}

func TestGainControllerTargetRatio(t *testing.T) {
	g := NewGainController(400, 0.01, 16)

	assert.InDelta(t, 0.5, g.Observe(0.02), 1e-6)
	// mean(0.02, 0.06) = 0.04
	assert.InDelta(t, 0.25, g.Observe(0.06), 1e-6)
}

func TestGainControllerHistoryBound(t *testing.T) {
	g := NewGainController(400, 0.01, 1)

	for i := 1; i <= 500; i++ {
		g.Observe(float32(i))
		assert.LessOrEqual(t, g.Len(), 400)
	}
	assert.Equal(t, 400, g.Len())

	// Only 101..500 remain, mean 300.5.
	assert.InDelta(t, 0.01/300.5, g.Scalar(), 1e-9)
}

func TestGainControllerIgnoresSilenceAndNaN(t *testing.T) {
	g := NewGainController(4, 0.01, 16)

	inputs := []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))}
	for _, in := range inputs {
		assert.Equal(t, float32(16), g.Observe(in))
	}
	assert.Zero(t, g.Len())

	g.Observe(0.01)
	assert.InDelta(t, 1, g.Observe(0), 1e-6)
	assert.Equal(t, 1, g.Len())
}

func TestGainControllerMinimumCapacity(t *testing.T) {
	g := NewGainController(0, 0.01, 1)
	g.Observe(0.1)
	g.Observe(0.02)
	assert.Equal(t, 1, g.Len())
	assert.InDelta(t, 0.5, g.Scalar(), 1e-6)
}
