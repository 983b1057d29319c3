package server

import (
	"fmt"
	"net/http"
	"sync"
)

// EventsPath streams reload events while the build watcher runs.
const EventsPath = "/__wasmserve/events"

// Broadcaster fans reload notifications out to Server-Sent Events clients.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan struct{}]struct{}
	done    chan struct{}
	closed  bool
}

// NewBroadcaster creates a broadcaster with no clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan struct{}]struct{}),
		done:    make(chan struct{}),
	}
}

// Broadcast notifies every connected client. Clients that still have a
// pending notification are skipped.
func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for clientChan := range b.clients {
		select {
		case clientChan <- struct{}{}:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close ends every open stream. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

func (b *Broadcaster) subscribe() (chan struct{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	clientChan := make(chan struct{}, 1)
	b.clients[clientChan] = struct{}{}
	return clientChan, true
}

func (b *Broadcaster) unsubscribe(clientChan chan struct{}) {
	b.mu.Lock()
	delete(b.clients, clientChan)
	b.mu.Unlock()
}

func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		setStreamHeaders(w.Header())
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	clientChan, ok := b.subscribe()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "Server shutting down")
		return
	}
	defer b.unsubscribe(clientChan)

	setStreamHeaders(w.Header())

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-b.done:
			return
		case <-clientChan:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

func setStreamHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}
