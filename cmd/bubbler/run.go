package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/bubbler/internal/bubble"
	"github.com/efebarandurmaz/bubbler/internal/config"
	"github.com/efebarandurmaz/bubbler/internal/graph"
	graphneo4j "github.com/efebarandurmaz/bubbler/internal/graph/neo4j"
	"github.com/efebarandurmaz/bubbler/internal/graphstats"
	"github.com/efebarandurmaz/bubbler/internal/monitor"
	"github.com/efebarandurmaz/bubbler/internal/observability"
	"github.com/efebarandurmaz/bubbler/internal/report"
	"github.com/efebarandurmaz/bubbler/internal/shortestpath"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

type simplifyFlags struct {
	input         string
	output        string
	truth         string
	mode          string
	maxPathLength int
	cutoff        float64
	maxRounds     int
	verify        bool
	excise        bool
	metrics       bool
	jsonReport    bool
	listen        string
}

type distanceFlags struct {
	input    string
	from     int64
	to       int64
	limit    int
	showPath bool
}

// env is what every command needs after startup.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	audit  *observability.AuditLogger
}

// setup loads configuration, applies flag overrides and installs the
// default logger and audit trail.
func setup(root rootFlags, cmd *cobra.Command, sf *simplifyFlags) (*env, error) {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}
	if root.logLevel != "" {
		cfg.Log.Level = root.logLevel
	}
	if root.logFormat != "" {
		cfg.Log.Format = root.logFormat
	}
	if sf != nil {
		applySimplifyFlags(cfg, cmd, sf)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	if cfg.Audit.Enabled {
		if err := observability.InitGlobalAuditLogger(&observability.AuditConfig{
			Enabled:    true,
			OutputPath: cfg.Audit.OutputPath,
		}); err != nil {
			return nil, err
		}
	}
	return &env{cfg: cfg, logger: logger, audit: observability.Audit()}, nil
}

// applySimplifyFlags lets explicitly set flags win over file and env values.
func applySimplifyFlags(cfg *config.Config, cmd *cobra.Command, sf *simplifyFlags) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Graph.Input = sf.input
	}
	if flags.Changed("output") {
		cfg.Graph.Output = sf.output
	}
	if flags.Changed("truth") {
		cfg.Graph.Truth = sf.truth
	}
	if flags.Changed("mode") {
		cfg.Bubble.Mode = sf.mode
	}
	if flags.Changed("max-path-length") {
		cfg.Bubble.MaxPathLength = sf.maxPathLength
	}
	if flags.Changed("cutoff") {
		cfg.Bubble.CoverageCutoff = sf.cutoff
	}
	if flags.Changed("max-rounds") {
		cfg.Bubble.MaxRounds = sf.maxRounds
	}
	if flags.Changed("verify") {
		cfg.Bubble.VerifyAdjacency = sf.verify
	}
	if flags.Changed("excise") {
		cfg.Bubble.ExciseRuns = sf.excise
	}
	if flags.Changed("listen") {
		cfg.Monitor.Listen = sf.listen
	}
}

// startMonitor serves the live run monitor until the returned stop
// function is called.
func startMonitor(addr string, logger *slog.Logger) (*monitor.Monitor, func()) {
	m := monitor.New(addr, logger)
	go func() {
		if err := m.Server.Start(); err != nil {
			logger.Error("monitor server failed", "error", err)
		}
	}()
	return m, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Server.Stop(ctx); err != nil {
			logger.Warn("monitor shutdown", "error", err)
		}
	}
}

func runSimplify(ctx context.Context, e *env, sf simplifyFlags) error {
	cfg := e.cfg
	if cfg.Graph.Input == "" {
		return errors.New("no input graph: set --input or graph.input")
	}
	defer e.audit.Close()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: "0.1.0",
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	var passMetrics *observability.PassMetrics
	if sf.metrics {
		mp, err := observability.InitMetrics(os.Stderr, 0)
		if err != nil {
			return err
		}
		defer mp.Shutdown(context.Background())
		passMetrics = observability.Metrics()
	}

	g, err := graph.ReadFile(cfg.Graph.Input)
	if err != nil {
		return err
	}
	k := g.KmerSize()
	if cfg.Bubble.KmerSize > 0 {
		k = cfg.Bubble.KmerSize
	}

	var eval *bubble.TruthEvaluator
	if cfg.Graph.Truth != "" {
		if eval, err = loadTruth(cfg.Graph.Truth); err != nil {
			return err
		}
	}

	params := report.Params{
		Mode:           cfg.Bubble.Mode,
		MaxPathLength:  cfg.Bubble.PathLengthBound(k),
		CoverageCutoff: cfg.Bubble.CoverageCutoff,
		MaxRounds:      cfg.Bubble.MaxRounds,
	}
	rep := report.New(cfg.Graph.Input, params)
	rep.SessionID = e.audit.SessionID()
	rep.Output = cfg.Graph.Output
	rep.CollectBefore(g)

	runID := firstNonEmpty(rep.SessionID, uuid.NewString())
	var emit *monitor.Emitter
	if cfg.Monitor.Listen != "" {
		m, stop := startMonitor(cfg.Monitor.Listen, e.logger)
		defer stop()
		emit = m.Emitter
	}

	opts := bubble.Options{
		Mode:            bubble.Mode(cfg.Bubble.Mode),
		MaxPathLength:   params.MaxPathLength,
		CoverageCutoff:  cfg.Bubble.CoverageCutoff,
		Logger:          e.logger,
		ProgressEvery:   cfg.Bubble.ProgressEvery,
		Metrics:         passMetrics,
		VerifyAdjacency: cfg.Bubble.VerifyAdjacency,
		ExciseRuns:      cfg.Bubble.ExciseRuns,
		OnPassStart: func(ctx context.Context, round, validNodes int) {
			e.audit.LogPassStart(ctx, round, validNodes)
			if emit != nil {
				emit.PassStarted(runID, round, validNodes)
			}
		},
		OnPassEnd: func(ctx context.Context, res *bubble.PassResult) {
			e.audit.LogPassEnd(ctx, res.Round, res.Roots, res.Candidates, res.Removed, res.Duration)
			if emit != nil {
				emit.PassCompleted(runID, res, g.NumValidNodes())
			}
		},
		OnDecision: func(dec bubble.Decision) {
			e.audit.LogDecision(ctx, decisionRecord(dec))
			if emit != nil {
				emit.Decision(runID, dec)
			}
		},
	}
	if eval != nil {
		opts.Evaluator = eval
	}
	det, err := bubble.NewDetector(g, opts)
	if err != nil {
		return err
	}

	e.audit.LogRunStart(ctx, string(det.Mode()), cfg.Graph.Input, map[string]interface{}{
		"max_path_length": det.Bound(),
		"coverage_cutoff": cfg.Bubble.CoverageCutoff,
		"max_rounds":      cfg.Bubble.MaxRounds,
	})

	if emit != nil {
		emit.RunStarted(runID, cfg.Graph.Input, string(det.Mode()), g.NumValidNodes())
	}

	var errs []string
	res, runErr := det.Simplify(ctx, cfg.Bubble.MaxRounds)
	if emit != nil {
		if runErr != nil {
			emit.RunFailed(runID, runErr)
		} else {
			emit.RunCompleted(runID, res.Converged)
		}
	}
	rep.AddRun(res, eval != nil)
	rep.CollectAfter(g)
	if runErr != nil {
		e.audit.LogRunError(ctx, runErr)
		errs = append(errs, runErr.Error())
	} else {
		e.audit.LogRunEnd(ctx, len(res.Passes), res.Removed, res.Duration)
		if cfg.Graph.Output != "" {
			if err := graph.WriteFile(cfg.Graph.Output, g); err != nil {
				errs = append(errs, err.Error())
				runErr = err
			}
		}
	}
	rep.Finish(errs)

	if sf.jsonReport {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		rep.PrintSummary(os.Stdout)
	}
	return runErr
}

func decisionRecord(dec bubble.Decision) observability.DecisionRecord {
	return observability.DecisionRecord{
		Round:        dec.Round,
		Root:         int64(dec.Root),
		Prev:         int64(dec.Prev),
		Ext:          int64(dec.Ext),
		Policy:       string(dec.Policy),
		Removed:      int64(dec.Removed),
		RemovedNodes: dec.RemovedNodes,
		PrevCoverage: dec.PrevCoverage,
		ExtCoverage:  dec.ExtCoverage,
	}
}

func loadTruth(path string) (*bubble.TruthEvaluator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open truth table: %w", err)
	}
	defer f.Close()
	return bubble.LoadTruth(f)
}

func runStats(e *env, input string, asJSON bool) error {
	g, err := readInput(input)
	if err != nil {
		return err
	}
	stats := graphstats.Analyze(g)
	e.logger.Debug("graph analyzed", "input", input, "valid_nodes", stats.ValidNodes)
	if asJSON {
		return writeJSON(os.Stdout, stats)
	}
	fmt.Print(graphstats.FormatStats(stats))
	return nil
}

func runExport(e *env, input, output, format string) error {
	g, err := readInput(input)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "dot":
		data = []byte(graphstats.ExportDOT(g, e.cfg.Neo4j.GraphName))
	case "mermaid":
		data = []byte(graphstats.ExportMermaid(g))
	case "json":
		if data, err = graphstats.ExportJSON(g); err != nil {
			return err
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown export format %q (use dot, mermaid or json)", format)
	}

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	e.logger.Info("graph exported", "format", format, "output", output, "bytes", len(data))
	return nil
}

func runDiff(e *env, before, after string, asJSON bool) error {
	old, err := readInput(before)
	if err != nil {
		return err
	}
	g, err := readInput(after)
	if err != nil {
		return err
	}
	d := graphstats.Diff(old, g)
	e.logger.Debug("graphs compared", "before", before, "after", after,
		"nodes_removed", d.Summary.NodesRemoved, "arcs_removed", d.Summary.ArcsRemoved)
	if asJSON {
		return writeJSON(os.Stdout, d)
	}
	fmt.Print(graphstats.FormatDiff(d))
	return nil
}

func runDistance(e *env, df distanceFlags) error {
	g, err := readInput(df.input)
	if err != nil {
		return err
	}
	from, to := graph.NodeID(df.from), graph.NodeID(df.to)

	if !df.showPath {
		d, ok, err := shortestpath.Distance(g, from, to, df.limit)
		if err != nil {
			return err
		}
		printDistance(os.Stdout, from, to, d, ok)
		return nil
	}

	if !g.Node(to).Valid() {
		return fmt.Errorf("target %d: %w", to, graph.ErrNodeNotFound)
	}
	tree, err := shortestpath.From(g, from, df.limit)
	if err != nil {
		return err
	}
	d, ok := tree.Distance(to)
	printDistance(os.Stdout, from, to, d, ok)
	if ok {
		fmt.Println("path:", tree.PathTo(to))
	}
	e.logger.Debug("shortest path tree", "source", from, "reached", tree.Reached())
	return nil
}

func printDistance(w io.Writer, from, to graph.NodeID, d int, ok bool) {
	if !ok {
		fmt.Fprintf(w, "%d -> %d: unreachable\n", from, to)
		return
	}
	fmt.Fprintf(w, "%d -> %d: %d bases\n", from, to, d)
}

func openRepository(ctx context.Context, cfg *config.Config) (graph.Repository, error) {
	if cfg.Neo4j.URI == "" {
		return nil, errors.New("neo4j.uri is not configured")
	}
	return graphneo4j.NewNeo4j(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password)
}

func runStore(ctx context.Context, e *env, input, name string) error {
	defer e.audit.Close()
	g, err := readInput(input)
	if err != nil {
		return err
	}
	repo, err := openRepository(ctx, e.cfg)
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	start := time.Now()
	err = repo.StoreGraph(ctx, name, g)
	e.audit.LogStorage(ctx, observability.AuditEventStore, name, g.NumValidNodes(), err)
	if err != nil {
		return err
	}
	e.logger.Info("graph stored", "name", name, "nodes", g.NumValidNodes(), "duration", time.Since(start))
	return nil
}

func runFetch(ctx context.Context, e *env, name, output string) error {
	defer e.audit.Close()
	repo, err := openRepository(ctx, e.cfg)
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	g, err := repo.LoadGraph(ctx, name)
	nodes := 0
	if g != nil {
		nodes = g.NumValidNodes()
	}
	e.audit.LogStorage(ctx, observability.AuditEventFetch, name, nodes, err)
	if err != nil {
		return err
	}

	if output == "" {
		return graph.Encode(os.Stdout, g)
	}
	if err := graph.WriteFile(output, g); err != nil {
		return err
	}
	e.logger.Info("graph fetched", "name", name, "nodes", nodes, "output", output)
	return nil
}

func readInput(path string) (*graph.Graph, error) {
	if path == "" {
		return nil, errors.New("no input graph: set --input or graph.input")
	}
	return graph.ReadFile(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
