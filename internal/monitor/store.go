package monitor

import (
	"sort"
	"sync"
	"time"
)

const maxRuns = 50

// Store provides thread-safe in-memory storage for runs. Readers get
// copies; writers go through UpdateRun.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewStore creates a new Store instance.
func NewStore() *Store {
	return &Store{runs: make(map[string]*Run)}
}

// CreateRun adds a run to the store.
func (s *Store) CreateRun(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.evictOldRuns()
}

// GetRun retrieves a copy of a run by ID.
func (s *Store) GetRun(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	return run.clone(), true
}

// ListRuns returns copies of all runs, newest first.
func (s *Store) ListRuns() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run.clone())
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs
}

// UpdateRun applies fn to the stored run under the write lock. It returns
// a copy of the updated run, or nil if id is unknown.
func (s *Store) UpdateRun(id string, fn func(*Run)) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil
	}
	fn(run)
	return run.clone()
}

// GetStats computes aggregate statistics.
func (s *Store) GetStats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{TotalRuns: len(s.runs)}
	var total time.Duration
	for _, run := range s.runs {
		switch run.Status {
		case StatusRunning:
			stats.ActiveRuns++
		case StatusCompleted:
			stats.CompletedRuns++
			if run.CompletedAt != nil {
				total += run.CompletedAt.Sub(run.StartedAt)
			}
		case StatusFailed:
			stats.FailedRuns++
		}
		stats.TotalRemoved += run.Removed
	}
	if stats.CompletedRuns > 0 {
		stats.AvgDuration = total.Seconds() / float64(stats.CompletedRuns)
	}
	return stats
}

// evictOldRuns removes the oldest finished runs beyond maxRuns.
// Must be called with lock held.
func (s *Store) evictOldRuns() {
	if len(s.runs) <= maxRuns {
		return
	}

	type runTime struct {
		id   string
		time time.Time
	}
	var finished []runTime
	for id, run := range s.runs {
		if run.Status == StatusRunning {
			continue
		}
		t := run.StartedAt
		if run.CompletedAt != nil {
			t = *run.CompletedAt
		}
		finished = append(finished, runTime{id: id, time: t})
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].time.Before(finished[j].time)
	})

	toDelete := len(s.runs) - maxRuns
	for i := 0; i < toDelete && i < len(finished); i++ {
		delete(s.runs, finished[i].id)
	}
}
