package monitor

import "time"

// RunStatus represents the state of a simplify run or pass.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is one simplify invocation as seen by the monitor.
type Run struct {
	ID          string       `json:"id"`
	Input       string       `json:"input"`
	Mode        string       `json:"mode"`
	Status      RunStatus    `json:"status"`
	Passes      []PassStatus `json:"passes"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
	StartNodes  int          `json:"start_nodes"`
	ValidNodes  int          `json:"valid_nodes"`
	Removed     int          `json:"removed"`
	Decisions   int          `json:"decisions"`
	Converged   bool         `json:"converged"`
}

// PassStatus tracks a single pass.
type PassStatus struct {
	Round       int           `json:"round"`
	Status      RunStatus     `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration_ms"`
	ValidNodes  int           `json:"valid_nodes"`
	Roots       int           `json:"roots"`
	Candidates  int           `json:"candidates"`
	Removed     int           `json:"removed"`
}

// Stats holds aggregate statistics over stored runs.
type Stats struct {
	TotalRuns     int     `json:"total_runs"`
	ActiveRuns    int     `json:"active_runs"`
	CompletedRuns int     `json:"completed_runs"`
	FailedRuns    int     `json:"failed_runs"`
	TotalRemoved  int     `json:"total_removed"`
	AvgDuration   float64 `json:"avg_duration_seconds"`
}

// Event is pushed to every connected client.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	RunID     string      `json:"run_id,omitempty"`
	Round     int         `json:"round,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Event types.
const (
	EventConnected     = "connected"
	EventRunStarted    = "run.started"
	EventRunCompleted  = "run.completed"
	EventRunFailed     = "run.failed"
	EventPassStarted   = "pass.started"
	EventPassCompleted = "pass.completed"
	EventDecision      = "bubble.decision"
)

// clone returns a deep copy safe to hand out of the store.
func (r *Run) clone() *Run {
	c := *r
	c.Passes = append([]PassStatus(nil), r.Passes...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
