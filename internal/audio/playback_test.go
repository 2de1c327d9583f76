// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioviz/internal/frame"
)

func testTrack(n int, d time.Duration) Track {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}
	return Track{Samples: samples, Duration: d, SampleRate: n}
}

func TestDriftSamples(t *testing.T) {
	tests := []struct {
		name   string
		excess time.Duration
		sps    float64
		want   int
	}{
		{"no overrun", 0, 48000, 0},
		{"negative", -time.Millisecond, 48000, 0},
		{"5ms at 48k", 5 * time.Millisecond, 48000, 240},
		{"1ms at 44.1k rounds down", time.Millisecond, 44100, 44},
		{"rounds up", 1500 * time.Microsecond, 44100, 66}, // 66.15
		{"sub-sample", 10 * time.Microsecond, 48000, 0},   // 0.48
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DriftSamples(tt.excess, tt.sps))
		})
	}
}

func TestPlaybackNoOverrun(t *testing.T) {
	clock := newFakeClock()
	proc := &windowRecorder{}
	p := NewPlaybackScheduler(proc, 20*time.Millisecond, clock)

	track := testTrack(48000, time.Second)
	require.NoError(t, p.Run(context.Background(), track))

	lengths := proc.lengths()
	assert.Len(t, lengths, 50)
	for _, l := range lengths {
		assert.Equal(t, 960, l)
	}
	assert.Equal(t, PlaybackStats{Windows: 50}, p.Stats())
	assert.Equal(t, 48000.0, proc.rates[0])
}

func TestPlaybackDriftCorrection(t *testing.T) {
	const (
		sps     = 48000
		nominal = 20 * time.Millisecond
		delta   = 5 * time.Millisecond
	)

	clock := newFakeClock()
	proc := &windowRecorder{}
	// Every window takes delta longer than its nominal duration.
	proc.onWin = func() { clock.Advance(delta) }
	p := NewPlaybackScheduler(proc, nominal, clock)

	track := testTrack(sps, time.Second)
	require.NoError(t, p.Run(context.Background(), track))

	extra := DriftSamples(delta, sps)
	require.Equal(t, 240, extra)

	lengths := proc.lengths()
	require.NotEmpty(t, lengths)
	assert.Equal(t, 960, lengths[0], "first window has no correction")
	for i, l := range lengths[1 : len(lengths)-1] {
		assert.Equal(t, 960+extra, l, "window %d", i+1)
	}
	assert.LessOrEqual(t, lengths[len(lengths)-1], 960+extra)

	total := 0
	for _, l := range lengths {
		total += l
	}
	assert.Equal(t, sps, total, "windows cover the track exactly once")

	stats := p.Stats()
	assert.Equal(t, uint64(len(lengths)), stats.Windows)
	assert.Equal(t, extra*len(lengths), stats.DriftSamples)
}

func TestPlaybackWindowsAreContiguous(t *testing.T) {
	clock := newFakeClock()
	proc := &windowRecorder{}
	proc.onWin = func() { clock.Advance(3 * time.Millisecond) }
	p := NewPlaybackScheduler(proc, 10*time.Millisecond, clock)

	track := testTrack(10007, 500*time.Millisecond)
	require.NoError(t, p.Run(context.Background(), track))

	var joined []float32
	for _, w := range proc.windows {
		joined = append(joined, w...)
	}
	assert.Equal(t, track.Samples, joined)
}

func TestPlaybackStopsOnDisconnect(t *testing.T) {
	proc := &windowRecorder{err: frame.ErrDisconnected, failAt: 3}
	p := NewPlaybackScheduler(proc, 20*time.Millisecond, newFakeClock())

	assert.NoError(t, p.Run(context.Background(), testTrack(48000, time.Second)))
	assert.Len(t, proc.windows, 3)
	assert.Equal(t, uint64(2), p.Stats().Windows)
}

func TestPlaybackCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	proc := &windowRecorder{}
	proc.onWin = cancel
	p := NewPlaybackScheduler(proc, 20*time.Millisecond, newFakeClock())

	err := p.Run(ctx, testTrack(48000, time.Second))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, proc.windows, 1)
}

func TestPlaybackEdgeCases(t *testing.T) {
	p := NewPlaybackScheduler(&windowRecorder{}, 20*time.Millisecond, newFakeClock())

	assert.NoError(t, p.Run(context.Background(), Track{}))
	assert.Zero(t, p.Stats().Windows)

	assert.Error(t, p.Run(context.Background(), Track{Samples: make([]float32, 10)}))

	bad := NewPlaybackScheduler(&windowRecorder{}, 0, newFakeClock())
	assert.Error(t, bad.Run(context.Background(), testTrack(100, time.Second)))
}

func TestPlaybackTinyTrack(t *testing.T) {
	// Fewer samples than one nominal window still produce one window.
	proc := &windowRecorder{}
	p := NewPlaybackScheduler(proc, 20*time.Millisecond, newFakeClock())

	require.NoError(t, p.Run(context.Background(), testTrack(100, time.Second)))
	assert.Equal(t, []int{2, 2}, proc.lengths()[:2])

	proc = &windowRecorder{}
	p = NewPlaybackScheduler(proc, time.Second, newFakeClock())
	require.NoError(t, p.Run(context.Background(), testTrack(5, 10*time.Millisecond)))
	assert.Equal(t, []int{5}, proc.lengths())
}

func TestTrackSamplesPerSecond(t *testing.T) {
	assert.Equal(t, 44100.0, testTrack(88200, 2*time.Second).SamplesPerSecond())
	assert.Zero(t, Track{Samples: make([]float32, 3)}.SamplesPerSecond())
}

func TestSystemClockSleepCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SystemClock().Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
