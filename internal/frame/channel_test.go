// SPDX-License-Identifier: MIT
package frame

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameWithLow(v float32) AudioFrame {
	return AudioFrame{LowPower: v}
}

func TestChannelDropOldestKeepsNewest(t *testing.T) {
	ch := NewChannel(true)
	require.True(t, ch.DropOldest())

	for i := 1; i <= 5; i++ {
		require.NoError(t, ch.Send(frameWithLow(float32(i)/10)))
	}

	assert.Equal(t, 1, ch.Len())
	assert.Equal(t, uint64(4), ch.Dropped())

	got, err := ch.Recv(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.LowPower, 1e-6)
}

func TestChannelUnboundedKeepsOrder(t *testing.T) {
	ch := NewChannel(false)

	for i := 0; i < 100; i++ {
		require.NoError(t, ch.Send(frameWithLow(float32(i))))
	}
	assert.Equal(t, 100, ch.Len())
	assert.Zero(t, ch.Dropped())

	for i := 0; i < 100; i++ {
		got, err := ch.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, float32(i), got.LowPower)
	}
}

func TestChannelRecvDrainsBeforeClosed(t *testing.T) {
	ch := NewChannel(false)
	require.NoError(t, ch.Send(frameWithLow(0.25)))
	ch.Close()

	got, err := ch.Recv(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got.LowPower, 1e-6)

	_, err = ch.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, ch.Send(frameWithLow(1)), ErrClosed)
}

func TestChannelRecvBlocksUntilSend(t *testing.T) {
	ch := NewChannel(true)
	result := make(chan AudioFrame, 1)

	go func() {
		f, err := ch.Recv(context.Background())
		if err == nil {
			result <- f
		}
		close(result)
	}()

	select {
	case <-result:
		t.Fatal("Recv returned before anything was sent")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, ch.Send(frameWithLow(0.75)))

	select {
	case f, ok := <-result:
		require.True(t, ok)
		assert.InDelta(t, 0.75, f.LowPower, 1e-6)
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake up after Send")
	}
}

func TestChannelCloseWakesReceiver(t *testing.T) {
	ch := NewChannel(true)
	errs := make(chan error, 1)

	go func() {
		_, err := ch.Recv(context.Background())
		errs <- err
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Recv did not return after Close")
	}
}

func TestChannelRecvHonoursContext(t *testing.T) {
	ch := NewChannel(true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := ch.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelDisconnectFailsSend(t *testing.T) {
	ch := NewChannel(true)
	require.NoError(t, ch.Send(frameWithLow(0.1)))

	ch.Disconnect()

	assert.Zero(t, ch.Len())
	assert.ErrorIs(t, ch.Send(frameWithLow(0.2)), ErrDisconnected)
}

func TestChannelSendNeverBlocks(t *testing.T) {
	for _, dropOldest := range []bool{true, false} {
		ch := NewChannel(dropOldest)
		done := make(chan struct{})
		go func() {
			for i := 0; i < 10_000; i++ {
				_ = ch.Send(frameWithLow(1))
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("Send blocked with no consumer (dropOldest=%v)", dropOldest)
		}
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		freq  float32
		index int
		ok    bool
	}{
		{0, 0, true},
		{99.9, 0, true},
		{100, 1, true},
		{19999, 199, true},
		{20000, 0, false},
		{-1, 0, false},
		{float32(math.Inf(1)), 0, false},
		{float32(math.Inf(-1)), 0, false},
		{float32(math.NaN()), 0, false},
		{1e30, 0, false},
	}

	for _, tt := range tests {
		idx, ok := BucketIndex(tt.freq)
		assert.Equal(t, tt.ok, ok, "freq %v", tt.freq)
		if tt.ok {
			assert.Equal(t, tt.index, idx, "freq %v", tt.freq)
		}
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, float32(0), Clamp01(-3))
	assert.Equal(t, float32(0.5), Clamp01(0.5))
	assert.Equal(t, float32(1), Clamp01(12))
}
