package monitor

import (
	"time"

	"github.com/efebarandurmaz/bubbler/internal/bubble"
)

// Emitter records run progress in the store and forwards it to the hub.
// It is safe to use from multiple goroutines.
type Emitter struct {
	store *Store
	hub   *Hub
}

// NewEmitter creates a new event emitter.
func NewEmitter(store *Store, hub *Hub) *Emitter {
	return &Emitter{store: store, hub: hub}
}

// RunStarted registers a new running run and broadcasts "run.started".
func (e *Emitter) RunStarted(id, input, mode string, validNodes int) {
	run := &Run{
		ID:         id,
		Input:      input,
		Mode:       mode,
		Status:     StatusRunning,
		Passes:     make([]PassStatus, 0),
		StartedAt:  time.Now(),
		StartNodes: validNodes,
		ValidNodes: validNodes,
	}
	e.store.CreateRun(run)
	e.broadcast(EventRunStarted, id, 0, run.clone())
}

// PassStarted appends a running pass.
func (e *Emitter) PassStarted(runID string, round, validNodes int) {
	pass := PassStatus{
		Round:      round,
		Status:     StatusRunning,
		StartedAt:  time.Now(),
		ValidNodes: validNodes,
	}
	e.store.UpdateRun(runID, func(run *Run) {
		run.Passes = append(run.Passes, pass)
		run.ValidNodes = validNodes
	})
	e.broadcast(EventPassStarted, runID, round, pass)
}

// PassCompleted closes the pass matching res.Round.
func (e *Emitter) PassCompleted(runID string, res *bubble.PassResult, validNodes int) {
	var pass PassStatus
	e.store.UpdateRun(runID, func(run *Run) {
		for i := range run.Passes {
			if run.Passes[i].Round != res.Round {
				continue
			}
			now := time.Now()
			p := &run.Passes[i]
			p.Status = StatusCompleted
			p.CompletedAt = &now
			p.Duration = res.Duration
			p.Roots = res.Roots
			p.Candidates = res.Candidates
			p.Removed = res.Removed
			pass = *p
			break
		}
		run.Removed += res.Removed
		run.ValidNodes = validNodes
	})
	e.broadcast(EventPassCompleted, runID, res.Round, pass)
}

// Decision counts a resolved candidate and broadcasts it.
func (e *Emitter) Decision(runID string, dec bubble.Decision) {
	e.store.UpdateRun(runID, func(run *Run) {
		run.Decisions++
	})
	e.broadcast(EventDecision, runID, dec.Round, map[string]interface{}{
		"root":          dec.Root,
		"prev":          dec.Prev,
		"ext":           dec.Ext,
		"policy":        dec.Policy,
		"removed":       dec.Removed,
		"removed_nodes": dec.RemovedNodes,
		"prev_coverage": dec.PrevCoverage,
		"ext_coverage":  dec.ExtCoverage,
	})
}

// RunCompleted marks the run completed.
func (e *Emitter) RunCompleted(runID string, converged bool) {
	run := e.store.UpdateRun(runID, func(run *Run) {
		now := time.Now()
		run.Status = StatusCompleted
		run.CompletedAt = &now
		run.Converged = converged
	})
	e.broadcast(EventRunCompleted, runID, 0, run)
}

// RunFailed marks the run failed.
func (e *Emitter) RunFailed(runID string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	run := e.store.UpdateRun(runID, func(run *Run) {
		now := time.Now()
		run.Status = StatusFailed
		run.CompletedAt = &now
		run.Error = msg
	})
	e.broadcast(EventRunFailed, runID, 0, run)
}

func (e *Emitter) broadcast(typ, runID string, round int, data interface{}) {
	e.hub.Broadcast(&Event{
		Type:      typ,
		Timestamp: time.Now(),
		RunID:     runID,
		Round:     round,
		Data:      data,
	})
}
