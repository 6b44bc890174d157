package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Hub fans run events out to Server-Sent Events subscribers. A subscriber
// either follows every run or a single run ID.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Client]struct{}
}

// Client is one SSE subscriber. Writes are serialized because the
// keepalive and broadcasts run on different goroutines.
type Client struct {
	runID string

	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	closed  bool
	done    chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes c and stops its keepalive. It is safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.subs[c]
	delete(h.subs, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Clients returns the number of subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Watching returns the number of subscribers that receive events of runID.
func (h *Hub) Watching(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.subs {
		if c.follows(runID) {
			n++
		}
	}
	return n
}

// Broadcast sends ev to every subscriber following its run. The event is
// encoded once and skipped entirely when nobody follows the run.
func (h *Hub) Broadcast(ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var data []byte
	for c := range h.subs {
		if !c.follows(ev.RunID) {
			continue
		}
		if data == nil {
			var err error
			if data, err = json.Marshal(ev); err != nil {
				return
			}
		}
		c.send(data)
	}
}

// NewClient prepares w for streaming. An empty runID follows every run.
func NewClient(w http.ResponseWriter, runID string) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &Client{
		runID:   runID,
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}, nil
}

// RunID returns the run the client follows, or "" for all runs.
func (c *Client) RunID() string {
	return c.runID
}

func (c *Client) follows(runID string) bool {
	return c.runID == "" || c.runID == runID
}

func (c *Client) send(data []byte) {
	c.write(func() { fmt.Fprintf(c.writer, "data: %s\n\n", data) })
}

// SendPing writes a comment line so proxies keep the stream open.
func (c *Client) SendPing() {
	c.write(func() { fmt.Fprint(c.writer, ": ping\n\n") })
}

func (c *Client) write(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn()
	c.flusher.Flush()
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// KeepAlive pings until the client is unregistered.
func (c *Client) KeepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.SendPing()
		}
	}
}
