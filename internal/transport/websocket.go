// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"audioviz/internal/frame"
	applog "audioviz/internal/log"
)

// WebSocketPath is where browser clients connect.
const WebSocketPath = "/ws"

const writeTimeout = time.Second

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("transport closed")

// Message is the JSON document broadcast for every frame.
type Message struct {
	Type     string  `json:"type"`
	Sequence uint64  `json:"seq"`
	BPM      float32 `json:"bpm"`
	Low      float32 `json:"low"`
	Mid      float32 `json:"mid"`
	High     float32 `json:"high"`
	// Buckets are the 200 hundred-Hz bins. They are raw sums and may
	// exceed 1.
	Buckets []float32 `json:"buckets"`
}

// WebSocketTransport broadcasts frames as JSON to every connected client.
//
// Send never blocks: frames are queued for a broadcaster goroutine and
// dropped when the queue is full or when they arrive faster than
// minSendInterval.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan Message
	server    *http.Server
	listener  net.Listener

	minSendInterval time.Duration
	lastSend        time.Time
	sequence        uint64
	closed          bool
	sendMu          sync.Mutex

	closeOnce sync.Once
	done      sync.WaitGroup
}

// NewWebSocketTransport listens on addr and starts serving WebSocket clients
// on WebSocketPath. minSendInterval rate-limits broadcasts; zero disables it.
func NewWebSocketTransport(addr string, minSendInterval time.Duration) (*WebSocketTransport, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Visualizer pages are served from anywhere.
			},
		},
		clients:         make(map[*websocket.Conn]bool),
		broadcast:       make(chan Message, 256),
		listener:        listener,
		minSendInterval: minSendInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, wst.handleWebSocket)
	wst.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	wst.done.Add(2)
	go func() {
		defer wst.done.Done()
		applog.Infof("WebSocketTransport: Serving on ws://%s%s", listener.Addr(), WebSocketPath)
		if err := wst.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	go func() {
		defer wst.done.Done()
		wst.handleBroadcasts()
	}()

	return wst, nil
}

// MinSendInterval returns the broadcast rate limit; zero means none.
func (wst *WebSocketTransport) MinSendInterval() time.Duration { return wst.minSendInterval }

// Addr returns the address the server is listening on.
func (wst *WebSocketTransport) Addr() net.Addr { return wst.listener.Addr() }

// ClientCount returns the number of connected clients.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client %s connected, total: %d", conn.RemoteAddr(), total)

	// Clients never send anything meaningful; reading only detects close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.dropClient(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) dropClient(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	if ok {
		conn.Close()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for msg := range wst.broadcast {
		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.WriteJSON(msg); err != nil {
				applog.Debugf("WebSocketTransport: Error sending to client: %v", err)
				client.Close()
				delete(wst.clients, client)
			}
		}
		wst.clientsMu.Unlock()
	}
}

// Send queues f for broadcast. Frames over the rate limit or beyond the
// queue capacity are dropped silently.
func (wst *WebSocketTransport) Send(f frame.AudioFrame) error {
	wst.sendMu.Lock()
	defer wst.sendMu.Unlock()

	if wst.closed {
		return ErrTransportClosed
	}

	now := time.Now()
	if wst.minSendInterval > 0 && now.Sub(wst.lastSend) < wst.minSendInterval {
		return nil
	}
	wst.lastSend = now
	wst.sequence++

	msg := Message{
		Type:     "frame",
		Sequence: wst.sequence,
		BPM:      f.BPM,
		Low:      f.LowPower,
		Mid:      f.MidPower,
		High:     f.HighPower,
		Buckets:  append([]float32(nil), f.HundredHzBuckets[:]...),
	}

	select {
	case wst.broadcast <- msg:
	default:
		// Queue full, drop message.
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Info("WebSocketTransport: Closing server")

		err = wst.server.Close()

		wst.sendMu.Lock()
		wst.closed = true
		close(wst.broadcast)
		wst.sendMu.Unlock()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		wst.done.Wait()
	})
	return err
}

var _ Sink = (*WebSocketTransport)(nil)
