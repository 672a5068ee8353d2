package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"glidecomp/pkg/olc"
)

const (
	streamWriteWait = 5 * time.Second
	streamBuffer    = 8
)

// StreamMessage is pushed to websocket clients whenever a result improves.
type StreamMessage struct {
	Type      string                    `json:"type"`
	Time      time.Time                 `json:"time"`
	Solutions map[olc.Rule]olc.Solution `json:"solutions"`
}

// StreamHub fans improved solutions out to websocket subscribers.
// It implements core.SolutionPublisher.
type StreamHub struct {
	engine   *olc.Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewStreamHub creates a hub. New clients first receive the engine's current results.
func NewStreamHub(engine *olc.Engine) *StreamHub {
	return &StreamHub{
		engine:   engine,
		upgrader: websocket.Upgrader{EnableCompression: false},
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

// PublishSolutions implements core.SolutionPublisher. Slow clients miss
// updates rather than block the scoring job.
func (h *StreamHub) PublishSolutions(sols map[olc.Rule]olc.Solution) {
	data, err := encodeStream("solutions", sols)
	if err != nil {
		slog.Error("stream: encode failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.clients {
		select {
		case out <- data:
		default:
			slog.Debug("stream: client lagging, update dropped", "remote", conn.RemoteAddr())
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream: unable to upgrade websocket", "error", err)
		return
	}

	out := make(chan []byte, streamBuffer)
	if h.engine != nil {
		if data, err := encodeStream("snapshot", h.engine.Solutions()); err == nil {
			out <- data
		}
	}

	h.mu.Lock()
	h.clients[conn] = out
	h.mu.Unlock()
	slog.Debug("stream: client connected", "remote", conn.RemoteAddr())

	done := make(chan struct{})
	go h.writeLoop(conn, out, done)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	close(done)
	conn.Close()
	slog.Debug("stream: client disconnected", "remote", conn.RemoteAddr())
}

func (h *StreamHub) writeLoop(conn *websocket.Conn, out <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case data := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("stream: write failed", "error", err)
				conn.Close()
				return
			}
		}
	}
}

func encodeStream(kind string, sols map[olc.Rule]olc.Solution) ([]byte, error) {
	return json.Marshal(StreamMessage{Type: kind, Time: time.Now(), Solutions: sols})
}
