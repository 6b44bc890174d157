// Package report summarizes a bubble removal run for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/efebarandurmaz/bubbler/internal/bubble"
	"github.com/efebarandurmaz/bubbler/internal/graph"
	"github.com/efebarandurmaz/bubbler/internal/graphstats"
)

// RunReport collects statistics for a full simplify run.
type RunReport struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at,omitempty"`
	Duration   time.Duration     `json:"duration_ms,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Input      string            `json:"input"`
	Output     string            `json:"output,omitempty"`
	Params     Params            `json:"params"`
	Before     *graphstats.Stats `json:"before"`
	After      *graphstats.Stats `json:"after,omitempty"`
	Passes     []PassSummary     `json:"passes"`
	Removed    int               `json:"removed"`
	Converged  bool              `json:"converged"`

	// Confusion is set only when a truth table was supplied.
	Confusion *ConfusionSummary `json:"confusion,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

type Params struct {
	Mode           string  `json:"mode"`
	MaxPathLength  int     `json:"max_path_length"`
	CoverageCutoff float64 `json:"coverage_cutoff"`
	MaxRounds      int     `json:"max_rounds"`
}

type PassSummary struct {
	Round      int           `json:"round"`
	Roots      int           `json:"roots"`
	Candidates int           `json:"candidates"`
	Removed    int           `json:"removed"`
	Duration   time.Duration `json:"duration_ms"`
}

type ConfusionSummary struct {
	Counts      bubble.Confusion `json:"counts"`
	Sensitivity float64          `json:"sensitivity"`
	Specificity float64          `json:"specificity"`
}

// New starts tracking a run over the graph read from input.
func New(input string, params Params) *RunReport {
	return &RunReport{StartedAt: time.Now(), Input: input, Params: params}
}

// CollectBefore records statistics of the graph before simplification.
func (r *RunReport) CollectBefore(g *graph.Graph) {
	r.Before = graphstats.Analyze(g)
}

// CollectAfter records statistics of the simplified graph.
func (r *RunReport) CollectAfter(g *graph.Graph) {
	r.After = graphstats.Analyze(g)
}

// AddRun copies pass results into the report. scored tells whether the
// confusion counts come from a real evaluator.
func (r *RunReport) AddRun(res *bubble.RunResult, scored bool) {
	if res == nil {
		return
	}
	for _, p := range res.Passes {
		r.Passes = append(r.Passes, PassSummary{
			Round:      p.Round,
			Roots:      p.Roots,
			Candidates: p.Candidates,
			Removed:    p.Removed,
			Duration:   p.Duration,
		})
	}
	r.Removed += res.Removed
	r.Converged = res.Converged
	if scored {
		c := res.Confusion
		if r.Confusion != nil {
			c = c.Add(r.Confusion.Counts)
		}
		r.Confusion = &ConfusionSummary{
			Counts:      c,
			Sensitivity: c.Sensitivity(),
			Specificity: c.Specificity(),
		}
	}
}

// Finish marks the run as complete.
func (r *RunReport) Finish(errs []string) {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	r.Errors = errs
}

// PrintSummary writes a human-readable summary.
func (r *RunReport) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║        BUBBLER SIMPLIFY REPORT       ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-24s║\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "║ Mode:        %-24s║\n", r.Params.Mode)
	fmt.Fprintf(w, "║ Bound:       %-24d║\n", r.Params.MaxPathLength)
	fmt.Fprintf(w, "║ Cutoff:      %-24.2f║\n", r.Params.CoverageCutoff)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ GRAPH (%s)\n", r.Input)
	if r.Before != nil {
		fmt.Fprintf(w, "║   Nodes:       %d\n", r.Before.ValidNodes)
		fmt.Fprintf(w, "║   Arcs:        %d\n", r.Before.Arcs)
		fmt.Fprintf(w, "║   N50:         %d\n", r.Before.N50)
	}
	if r.After != nil {
		fmt.Fprintf(w, "║   Nodes after: %d\n", r.After.ValidNodes)
		fmt.Fprintf(w, "║   Arcs after:  %d\n", r.After.Arcs)
		fmt.Fprintf(w, "║   N50 after:   %d\n", r.After.N50)
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ PASSES\n")
	for _, p := range r.Passes {
		fmt.Fprintf(w, "║   round %-4d %8s  candidates=%d removed=%d\n",
			p.Round, p.Duration.Round(time.Millisecond), p.Candidates, p.Removed)
	}
	status := "converged"
	if !r.Converged {
		status = "round limit"
	}
	fmt.Fprintf(w, "║   Removed:     %d (%s)\n", r.Removed, status)
	if r.Confusion != nil {
		c := r.Confusion
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ACCURACY\n")
		fmt.Fprintf(w, "║   TP=%d TN=%d FP=%d FN=%d\n", c.Counts.TP, c.Counts.TN, c.Counts.FP, c.Counts.FN)
		fmt.Fprintf(w, "║   Sensitivity: %.3f\n", c.Sensitivity)
		fmt.Fprintf(w, "║   Specificity: %.3f\n", c.Specificity)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the report as formatted JSON.
func (r *RunReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
