// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioviz/internal/frame"
)

func dialWS(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	url := "ws://" + wst.Addr().String() + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return wst.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond)
	return conn
}

func TestWebSocketBroadcastsFrames(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0", 0)
	require.NoError(t, err)
	defer wst.Close()

	conn := dialWS(t, wst)

	f := frame.AudioFrame{LowPower: 0.5, MidPower: 0.25, HighPower: 1}
	f.HundredHzBuckets[3] = 2.5
	require.NoError(t, wst.Send(f))

	var msg Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "frame", msg.Type)
	assert.Equal(t, uint64(1), msg.Sequence)
	assert.Equal(t, float32(0.5), msg.Low)
	assert.Equal(t, float32(0.25), msg.Mid)
	assert.Equal(t, float32(1), msg.High)
	require.Len(t, msg.Buckets, frame.BucketCount)
	assert.Equal(t, float32(2.5), msg.Buckets[3])
}

func TestWebSocketRateLimit(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0", time.Hour)
	require.NoError(t, err)
	defer wst.Close()

	for range 10 {
		require.NoError(t, wst.Send(frame.AudioFrame{}))
	}
	assert.Equal(t, uint64(1), wst.sequence)
}

func TestWebSocketClientDisconnect(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0", 0)
	require.NoError(t, err)
	defer wst.Close()

	conn := dialWS(t, wst)
	conn.Close()

	assert.Eventually(t, func() bool { return wst.ClientCount() == 0 },
		2*time.Second, 5*time.Millisecond)
}

func TestWebSocketClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0", 0)
	require.NoError(t, err)

	require.NoError(t, wst.Close())
	assert.NoError(t, wst.Close())
	assert.ErrorIs(t, wst.Send(frame.AudioFrame{}), ErrTransportClosed)
}

func TestWebSocketListenError(t *testing.T) {
	_, err := NewWebSocketTransport("256.0.0.1:99999", 0)
	assert.Error(t, err)
}
