// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errScriptDone = errors.New("script exhausted")

// scriptedReader replays fixed chunks, then fails with errScriptDone.
type scriptedReader struct {
	chunks [][]int16
	reads  int
}

func (r *scriptedReader) Read() ([]int16, error) {
	if r.reads >= len(r.chunks) {
		return nil, errScriptDone
	}
	c := r.chunks[r.reads]
	r.reads++
	return c, nil
}

// silentReader never delivers samples.
type silentReader struct{ reads int }

func (r *silentReader) Read() ([]int16, error) {
	r.reads++
	return nil, nil
}

// windowRecorder keeps a copy of every window it receives.
type windowRecorder struct {
	mu      sync.Mutex
	windows [][]float32
	rates   []float64
	err     error // returned once len(windows) reaches failAt
	failAt  int
	onWin   func()
}

func (w *windowRecorder) Window(samples []float32, sampleRate float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.windows = append(w.windows, append([]float32(nil), samples...))
	w.rates = append(w.rates, sampleRate)
	if w.onWin != nil {
		w.onWin()
	}
	if w.err != nil && len(w.windows) >= w.failAt {
		return w.err
	}
	return nil
}

func (w *windowRecorder) lengths() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(w.windows))
	for i, win := range w.windows {
		out[i] = len(win)
	}
	return out
}

// fakeClock advances only when told to or when slept on.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
