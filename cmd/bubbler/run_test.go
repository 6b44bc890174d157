package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/bubbler/internal/bubble"
	"github.com/efebarandurmaz/bubbler/internal/config"
	"github.com/efebarandurmaz/bubbler/internal/graph"
	"github.com/efebarandurmaz/bubbler/internal/observability"
)

func TestApplySimplifyFlags(t *testing.T) {
	var sf simplifyFlags
	cmd := &cobra.Command{Use: "simplify"}
	cmd.Flags().StringVar(&sf.mode, "mode", "", "")
	cmd.Flags().Float64Var(&sf.cutoff, "cutoff", 0, "")
	cmd.Flags().IntVar(&sf.maxRounds, "max-rounds", 0, "")
	cmd.Flags().StringVar(&sf.input, "input", "", "")
	cmd.Flags().StringVar(&sf.output, "output", "", "")
	cmd.Flags().StringVar(&sf.truth, "truth", "", "")
	cmd.Flags().IntVar(&sf.maxPathLength, "max-path-length", 0, "")
	cmd.Flags().BoolVar(&sf.verify, "verify", false, "")
	cmd.Flags().BoolVar(&sf.excise, "excise", false, "")
	cmd.Flags().StringVar(&sf.listen, "listen", "", "")
	if err := cmd.ParseFlags([]string{"--mode", "fused", "--cutoff", "0", "--listen", ":0", "--excise"}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Bubble: config.BubbleConfig{Mode: "extract", CoverageCutoff: 5, MaxRounds: 3}}
	applySimplifyFlags(cfg, cmd, &sf)

	if cfg.Bubble.Mode != "fused" {
		t.Errorf("expected flag to override mode, got %s", cfg.Bubble.Mode)
	}
	if cfg.Bubble.CoverageCutoff != 0 {
		t.Errorf("an explicit zero cutoff should win, got %v", cfg.Bubble.CoverageCutoff)
	}
	if cfg.Bubble.MaxRounds != 3 {
		t.Errorf("unset flags must keep config values, got %d", cfg.Bubble.MaxRounds)
	}
	if cfg.Monitor.Listen != ":0" {
		t.Errorf("expected listen address :0, got %q", cfg.Monitor.Listen)
	}
	if !cfg.Bubble.ExciseRuns {
		t.Error("expected --excise to enable run excision")
	}
}

func TestDecisionRecord(t *testing.T) {
	rec := decisionRecord(bubble.Decision{
		Round: 2, Root: -4, Prev: -6, Ext: -3, Policy: bubble.PolicySimpleSimple,
		Removed: -6, RemovedNodes: 2, PrevCoverage: 4, ExtCoverage: 20,
	})
	want := observability.DecisionRecord{
		Round: 2, Root: -4, Prev: -6, Ext: -3, Policy: string(bubble.PolicySimpleSimple),
		Removed: -6, RemovedNodes: 2, PrevCoverage: 4, ExtCoverage: 20,
	}
	if rec != want {
		t.Errorf("decisionRecord = %+v, want %+v", rec, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Errorf("expected b, got %s", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("expected empty, got %s", got)
	}
}

func TestRunExport(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.json")
	g := graph.New(3)
	a := g.AddNode("AAACG", 2)
	b := g.AddNode("ACGTT", 3)
	if err := g.AddArc(a, b, 1); err != nil {
		t.Fatal(err)
	}
	if err := graph.WriteFile(input, g); err != nil {
		t.Fatal(err)
	}

	e := &env{
		cfg:    &config.Config{Neo4j: config.Neo4jConfig{GraphName: "sample"}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		audit:  observability.Audit(),
	}

	output := filepath.Join(dir, "out.dot")
	if err := runExport(e, input, output, "dot"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph sample {") {
		t.Errorf("unexpected DOT output:\n%s", data)
	}

	if err := runExport(e, input, output, "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := runExport(e, "", output, "dot"); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestRunDiff_MissingInput(t *testing.T) {
	e := &env{
		cfg:    &config.Config{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		audit:  observability.Audit(),
	}
	if err := runDiff(e, "", "after.json", false); err == nil {
		t.Error("expected error for missing before graph")
	}
	if err := runDiff(e, filepath.Join(t.TempDir(), "nope.json"), "", false); err == nil {
		t.Error("expected error for unreadable before graph")
	}
}
