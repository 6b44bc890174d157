package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/efebarandurmaz/bubbler/internal/bubble"
)

func TestStore_CreateAndGetRun(t *testing.T) {
	store := NewStore()
	store.CreateRun(&Run{ID: "run-1", Input: "g.json", Status: StatusRunning, StartedAt: time.Now()})

	got, ok := store.GetRun("run-1")
	if !ok {
		t.Fatal("Expected to retrieve run, got not found")
	}
	if got.Input != "g.json" {
		t.Errorf("Expected Input g.json, got %s", got.Input)
	}

	// Mutating the copy must not leak into the store.
	got.Input = "changed"
	again, _ := store.GetRun("run-1")
	if again.Input != "g.json" {
		t.Errorf("Store run was mutated through a copy: %s", again.Input)
	}

	if _, ok := store.GetRun("missing"); ok {
		t.Error("Expected missing run to be not found")
	}
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	store := NewStore()
	now := time.Now()
	store.CreateRun(&Run{ID: "old", StartedAt: now.Add(-2 * time.Hour)})
	store.CreateRun(&Run{ID: "new", StartedAt: now})
	store.CreateRun(&Run{ID: "mid", StartedAt: now.Add(-time.Hour)})

	runs := store.ListRuns()
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, id)
		}
	}
}

func TestStore_UpdateRunUnknown(t *testing.T) {
	store := NewStore()
	if run := store.UpdateRun("nope", func(*Run) {}); run != nil {
		t.Errorf("Expected nil for unknown run, got %+v", run)
	}
}

func TestStore_EvictsFinishedRuns(t *testing.T) {
	store := NewStore()
	base := time.Now().Add(-time.Hour)

	store.CreateRun(&Run{ID: "active", Status: StatusRunning, StartedAt: base})
	for i := 0; i < maxRuns+5; i++ {
		done := base.Add(time.Duration(i) * time.Second)
		store.CreateRun(&Run{
			ID:          fmt.Sprintf("run-%d", i),
			Status:      StatusCompleted,
			StartedAt:   base,
			CompletedAt: &done,
		})
	}

	if n := len(store.ListRuns()); n != maxRuns {
		t.Errorf("Expected %d runs after eviction, got %d", maxRuns, n)
	}
	if _, ok := store.GetRun("active"); !ok {
		t.Error("Running run should never be evicted")
	}
	if _, ok := store.GetRun("run-0"); ok {
		t.Error("Oldest finished run should have been evicted")
	}
}

func TestEmitter_Lifecycle(t *testing.T) {
	store := NewStore()
	e := NewEmitter(store, NewHub())

	e.RunStarted("r1", "g.json", "extract", 10)
	e.PassStarted("r1", 1, 10)
	e.Decision("r1", bubble.Decision{Round: 1, Root: 1, Prev: 2, Ext: 3, Removed: 3})
	e.PassCompleted("r1", &bubble.PassResult{Round: 1, Roots: 10, Candidates: 1, Removed: 1}, 9)
	e.PassStarted("r1", 2, 9)
	e.PassCompleted("r1", &bubble.PassResult{Round: 2, Roots: 9}, 9)
	e.RunCompleted("r1", true)

	run, ok := store.GetRun("r1")
	if !ok {
		t.Fatal("run not stored")
	}
	if run.Status != StatusCompleted || !run.Converged || run.CompletedAt == nil {
		t.Errorf("unexpected final state: %+v", run)
	}
	if run.StartNodes != 10 || run.ValidNodes != 9 {
		t.Errorf("nodes: start %d valid %d, want 10 and 9", run.StartNodes, run.ValidNodes)
	}
	if run.Removed != 1 || run.Decisions != 1 {
		t.Errorf("removed %d decisions %d, want 1 and 1", run.Removed, run.Decisions)
	}
	if len(run.Passes) != 2 {
		t.Fatalf("Expected 2 passes, got %d", len(run.Passes))
	}
	for _, p := range run.Passes {
		if p.Status != StatusCompleted {
			t.Errorf("pass %d status %s", p.Round, p.Status)
		}
	}
	if run.Passes[0].Candidates != 1 {
		t.Errorf("pass 1 candidates = %d, want 1", run.Passes[0].Candidates)
	}

	stats := store.GetStats()
	if stats.CompletedRuns != 1 || stats.TotalRemoved != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestEmitter_RunFailed(t *testing.T) {
	store := NewStore()
	e := NewEmitter(store, NewHub())

	e.RunStarted("r1", "g.json", "fused", 4)
	e.RunFailed("r1", errors.New("adjacency broken"))

	run, _ := store.GetRun("r1")
	if run.Status != StatusFailed {
		t.Errorf("Expected failed, got %s", run.Status)
	}
	if run.Error != "adjacency broken" {
		t.Errorf("Expected error message, got %q", run.Error)
	}
	if store.GetStats().FailedRuns != 1 {
		t.Error("Expected one failed run in stats")
	}
}

func TestServer_API(t *testing.T) {
	m := New("127.0.0.1:0", nil)
	m.Emitter.RunStarted("r1", "g.json", "extract", 6)
	m.Emitter.PassStarted("r1", 1, 6)

	srv := httptest.NewServer(m.Server.Handler())
	defer srv.Close()

	tests := []struct {
		path   string
		status int
	}{
		{"/api/runs", http.StatusOK},
		{"/api/runs/r1", http.StatusOK},
		{"/api/runs/r1/passes", http.StatusOK},
		{"/api/runs/r1/other", http.StatusNotFound},
		{"/api/runs/missing", http.StatusNotFound},
		{"/api/runs/", http.StatusBadRequest},
		{"/api/stats", http.StatusOK},
		{"/api/health", http.StatusOK},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.status)
		}
	}

	resp, err := http.Get(srv.URL + "/api/runs/r1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var run Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "r1" || len(run.Passes) != 1 {
		t.Errorf("unexpected run: %+v", run)
	}

	post, err := http.Post(srv.URL+"/api/runs", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/runs = %d, want 405", post.StatusCode)
	}
}

func TestServer_SSE(t *testing.T) {
	m := New("127.0.0.1:0", nil)
	srv := httptest.NewServer(m.Server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	next := func() Event {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			return ev
		}
	}

	if ev := next(); ev.Type != EventConnected {
		t.Fatalf("first event = %s, want %s", ev.Type, EventConnected)
	}

	// Registration happens before the connected event is written.
	m.Emitter.RunStarted("r1", "g.json", "extract", 3)
	ev := next()
	if ev.Type != EventRunStarted || ev.RunID != "r1" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestHub_FiltersByRun(t *testing.T) {
	hub := NewHub()
	all, allRec := newTestClient(t, "")
	one, oneRec := newTestClient(t, "r1")
	hub.Register(all)
	hub.Register(one)

	if n := hub.Watching("r1"); n != 2 {
		t.Errorf("Watching(r1) = %d, want 2", n)
	}
	if n := hub.Watching("r2"); n != 1 {
		t.Errorf("Watching(r2) = %d, want 1", n)
	}

	e := NewEmitter(NewStore(), hub)
	e.RunStarted("r1", "a.json", "extract", 4)
	e.RunStarted("r2", "b.json", "fused", 4)
	e.Decision("r2", bubble.Decision{Round: 1, Root: 1, Prev: 2, Ext: 3, Removed: 3, RemovedNodes: 1, PrevCoverage: 20, ExtCoverage: 3})

	if got := strings.Count(allRec.Body.String(), "data: "); got != 3 {
		t.Errorf("unfiltered client got %d events, want 3", got)
	}
	body := oneRec.Body.String()
	if got := strings.Count(body, "data: "); got != 1 {
		t.Errorf("run-filtered client got %d events, want 1", got)
	}
	if strings.Contains(body, `"r2"`) {
		t.Errorf("run-filtered client saw another run: %s", body)
	}
	if !strings.Contains(allRec.Body.String(), `"ext_coverage":3`) {
		t.Errorf("decision event should carry branch coverage: %s", allRec.Body.String())
	}

	hub.Unregister(one)
	hub.Unregister(one)
	e.RunStarted("r1", "a.json", "extract", 4)
	if got := strings.Count(oneRec.Body.String(), "data: "); got != 1 {
		t.Errorf("unregistered client still received events: %d", got)
	}
	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, want 1", hub.Clients())
	}
}

func newTestClient(t *testing.T, runID string) (*Client, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, err := NewClient(rec, runID)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, rec
}
