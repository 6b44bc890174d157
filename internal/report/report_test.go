package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/efebarandurmaz/bubbler/internal/bubble"
	"github.com/efebarandurmaz/bubbler/internal/graph"
)

func sampleRun() *bubble.RunResult {
	return &bubble.RunResult{
		Passes: []*bubble.PassResult{
			{Round: 1, Roots: 12, Candidates: 3, Removed: 2, Duration: 40 * time.Millisecond},
			{Round: 2, Roots: 12, Candidates: 1, Removed: 0, Duration: 10 * time.Millisecond},
		},
		Removed:   2,
		Confusion: bubble.Confusion{TP: 2, TN: 3, FN: 1},
		Converged: true,
	}
}

func sampleGraph() *graph.Graph {
	g := graph.New(3)
	a := g.AddNode("AAACG", 1)
	b := g.AddNode("ACGTT", 1)
	_ = g.AddArc(a, b, 1)
	return g
}

func TestAddRun(t *testing.T) {
	r := New("reads.json", Params{Mode: "extract", MaxPathLength: 62, CoverageCutoff: 5})
	r.AddRun(sampleRun(), true)

	if len(r.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(r.Passes))
	}
	if r.Passes[0].Candidates != 3 || r.Passes[0].Removed != 2 {
		t.Errorf("unexpected first pass: %+v", r.Passes[0])
	}
	if r.Removed != 2 || !r.Converged {
		t.Errorf("expected 2 removed and converged, got %d %v", r.Removed, r.Converged)
	}
	if r.Confusion == nil {
		t.Fatal("expected confusion summary")
	}
	if r.Confusion.Sensitivity != 2.0/3.0 {
		t.Errorf("expected sensitivity 2/3, got %f", r.Confusion.Sensitivity)
	}
	if r.Confusion.Specificity != 1.0 {
		t.Errorf("expected specificity 1, got %f", r.Confusion.Specificity)
	}

	// a second run accumulates
	r.AddRun(sampleRun(), true)
	if r.Removed != 4 || r.Confusion.Counts.TP != 4 {
		t.Errorf("expected accumulated totals, got removed=%d tp=%d", r.Removed, r.Confusion.Counts.TP)
	}
}

func TestAddRun_Unscored(t *testing.T) {
	r := New("reads.json", Params{})
	r.AddRun(sampleRun(), false)
	if r.Confusion != nil {
		t.Error("confusion should be omitted without a truth table")
	}
	r.AddRun(nil, true)
	if r.Removed != 2 {
		t.Errorf("nil run should be ignored, got removed=%d", r.Removed)
	}
}

func TestCollect(t *testing.T) {
	g := sampleGraph()
	r := New("reads.json", Params{})
	r.CollectBefore(g)
	g.RemoveNode(2)
	r.CollectAfter(g)

	if r.Before.ValidNodes != 2 || r.After.ValidNodes != 1 {
		t.Errorf("expected 2 -> 1 nodes, got %d -> %d", r.Before.ValidNodes, r.After.ValidNodes)
	}
}

func TestPrintSummary(t *testing.T) {
	r := New("reads.json", Params{Mode: "fused", MaxPathLength: 62, CoverageCutoff: 5})
	r.CollectBefore(sampleGraph())
	r.AddRun(sampleRun(), true)
	r.Finish([]string{"output not written"})

	var buf bytes.Buffer
	r.PrintSummary(&buf)
	out := buf.String()

	for _, want := range []string{
		"BUBBLER SIMPLIFY REPORT",
		"fused",
		"GRAPH (reads.json)",
		"round 1",
		"candidates=3 removed=2",
		"Removed:     2 (converged)",
		"TP=2 TN=3 FP=0 FN=1",
		"output not written",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestPrintSummary_RoundLimit(t *testing.T) {
	r := New("reads.json", Params{})
	run := sampleRun()
	run.Converged = false
	r.AddRun(run, false)

	var buf bytes.Buffer
	r.PrintSummary(&buf)
	if !strings.Contains(buf.String(), "(round limit)") {
		t.Errorf("expected round limit status:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "ACCURACY") {
		t.Error("accuracy section should be omitted")
	}
}

func TestJSON(t *testing.T) {
	r := New("reads.json", Params{Mode: "extract"})
	r.SessionID = "abc"
	r.AddRun(sampleRun(), true)
	r.Finish(nil)

	data, err := r.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["session_id"] != "abc" {
		t.Errorf("expected session id, got %v", decoded["session_id"])
	}
	if passes, ok := decoded["passes"].([]any); !ok || len(passes) != 2 {
		t.Errorf("expected 2 passes, got %v", decoded["passes"])
	}
	conf, ok := decoded["confusion"].(map[string]any)
	if !ok {
		t.Fatalf("expected confusion object, got %v", decoded["confusion"])
	}
	counts := conf["counts"].(map[string]any)
	if counts["tp"] != float64(2) {
		t.Errorf("expected tp=2, got %v", counts["tp"])
	}
}
