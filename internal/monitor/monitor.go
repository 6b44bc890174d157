// Package monitor serves live progress of simplify runs over HTTP: a JSON
// API over recent runs and a Server-Sent Events stream of pass and
// decision events.
package monitor

import "log/slog"

// Monitor ties together all monitor components.
type Monitor struct {
	Server  *Server
	Store   *Store
	Hub     *Hub
	Emitter *Emitter
}

// New creates a fully wired monitor listening on addr.
func New(addr string, logger *slog.Logger) *Monitor {
	store := NewStore()
	hub := NewHub()
	return &Monitor{
		Server:  NewServer(addr, store, hub, logger),
		Store:   store,
		Hub:     hub,
		Emitter: NewEmitter(store, hub),
	}
}
