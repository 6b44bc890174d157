// Package bubble detects and removes bubbles in a sequence graph: two
// branches leaving a common root that reconverge within a bounded distance.
// One branch, usually a sequencing error or a heterozygous variant, is
// deleted so a single consensus path remains.
//
// A Detector owns one pass loop over the graph. It is not safe for
// concurrent use and assumes nothing else mutates the graph while it runs.
package bubble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/efebarandurmaz/bubbler/internal/graph"
	"github.com/efebarandurmaz/bubbler/internal/observability"
)

// ErrInvalidOptions is returned by NewDetector for unusable options.
var ErrInvalidOptions = errors.New("invalid bubble options")

// Mode selects how candidates are resolved during a pass.
type Mode string

const (
	// ModeExtract collects every candidate of a root before resolving any.
	ModeExtract Mode = "extract"
	// ModeFused resolves candidates as they are found and abandons the
	// root after the first removal.
	ModeFused Mode = "fused"
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeExtract:
		return ModeExtract, nil
	case ModeFused:
		return ModeFused, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, s)
}

// Options configures a Detector.
type Options struct {
	Mode Mode

	// MaxPathLength bounds exploration in bases. Zero means twice the
	// graph's k-mer size.
	MaxPathLength int

	// CoverageCutoff: branches at or above it are never removed.
	CoverageCutoff float64

	// Evaluator scores decisions; nil records nothing.
	Evaluator Evaluator

	Logger *slog.Logger

	// OnDecision is called after every resolved candidate.
	OnDecision func(Decision)

	// OnPassStart and OnPassEnd bracket every pass.
	OnPassStart func(ctx context.Context, round, validNodes int)
	OnPassEnd   func(ctx context.Context, res *PassResult)

	// ProgressEvery logs progress every N scanned identifiers; zero disables.
	ProgressEvery int

	// Metrics receives one record per pass; nil disables.
	Metrics *observability.PassMetrics

	// VerifyAdjacency checks arc symmetry after every pass and fails the
	// pass on a violation.
	VerifyAdjacency bool

	// ExciseRuns removes the whole pass-through run of a deleted simple
	// branch. A missing reciprocal arc found while excising fails the pass.
	ExciseRuns bool
}

// PassResult summarizes one pass.
type PassResult struct {
	Round      int
	Roots      int
	Candidates int
	Removed    int
	Confusion  Confusion
	Duration   time.Duration
}

// Changed reports whether the pass removed anything.
func (r *PassResult) Changed() bool {
	return r.Removed > 0
}

// RunResult summarizes repeated passes.
type RunResult struct {
	Passes    []*PassResult
	Removed   int
	Confusion Confusion
	Duration  time.Duration
	// Converged is true when the last pass removed nothing.
	Converged bool
}

// Detector runs bubble removal passes over a graph.
type Detector struct {
	g          *graph.Graph
	opts       Options
	bound      int
	explorer   *Explorer
	classifier *Classifier
	eval       Evaluator
	logger     *slog.Logger
	round      int
}

// NewDetector validates opts and returns a detector over g.
func NewDetector(g *graph.Graph, opts Options) (*Detector, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	opts.Mode = mode

	if opts.MaxPathLength < 0 {
		return nil, fmt.Errorf("%w: negative path length bound %d", ErrInvalidOptions, opts.MaxPathLength)
	}
	bound := opts.MaxPathLength
	if bound == 0 {
		bound = 2 * g.KmerSize()
	}
	if bound <= 0 {
		return nil, fmt.Errorf("%w: no path length bound and k-mer size is %d", ErrInvalidOptions, g.KmerSize())
	}
	if math.IsNaN(opts.CoverageCutoff) || opts.CoverageCutoff < 0 {
		return nil, fmt.Errorf("%w: coverage cutoff %v", ErrInvalidOptions, opts.CoverageCutoff)
	}

	eval := opts.Evaluator
	if eval == nil {
		eval = NopEvaluator()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Detector{
		g:        g,
		opts:     opts,
		bound:    bound,
		explorer: NewExplorer(g, bound),
		eval:     eval,
		logger:   logger,
	}
	d.classifier = NewClassifier(g, opts.CoverageCutoff, eval)
	d.classifier.logger = logger
	d.classifier.ExciseRuns = opts.ExciseRuns
	if opts.OnDecision != nil {
		d.classifier.OnDecision = func(dec Decision) {
			dec.Round = d.round
			opts.OnDecision(dec)
		}
	}
	return d, nil
}

// Bound returns the effective path length bound.
func (d *Detector) Bound() int { return d.bound }

// Mode returns the effective mode.
func (d *Detector) Mode() Mode { return d.opts.Mode }

// Run performs one pass: every identifier over [-N, N] without zero is
// visited in ascending order and each valid root with at least two
// outgoing arcs is explored. Validity is checked when a root's turn comes,
// so roots reduced by earlier removals are skipped.
//
// The pass itself is not interruptible; ctx carries the trace span.
func (d *Detector) Run(ctx context.Context) (*PassResult, error) {
	d.round++
	ctx, span := observability.StartPassSpan(ctx, string(d.opts.Mode), d.round, d.g.NumValidNodes())
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, d.logger)
	if d.opts.OnPassStart != nil {
		d.opts.OnPassStart(ctx, d.round, d.g.NumValidNodes())
	}

	start := time.Now()
	confBefore := d.eval.Confusion()
	removedBefore := d.classifier.Removed()
	res := &PassResult{Round: d.round}

	n := d.g.NumNodes()
	scanned := 0
	for i := -n; i <= n; i++ {
		if i == 0 {
			continue
		}
		scanned++
		if d.opts.ProgressEvery > 0 && scanned%d.opts.ProgressEvery == 0 {
			logger.Info("bubble pass progress",
				"round", d.round, "scanned", scanned, "total", 2*n,
				"removed", d.classifier.Removed()-removedBefore)
		}

		root := graph.NodeID(i)
		node := d.g.Node(root)
		if !node.Valid() || node.OutDegree() < 2 {
			continue
		}
		res.Roots++

		switch d.opts.Mode {
		case ModeFused:
			res.Candidates += d.explorer.Explore(root, d.classifier.Resolve)
		default:
			cands := d.explorer.Extract(root)
			res.Candidates += len(cands)
			for _, c := range cands {
				if !d.g.Node(c.Prev).Valid() || !d.g.Node(c.Ext).Valid() {
					continue
				}
				d.classifier.Resolve(c)
			}
		}
		if d.classifier.Err() != nil {
			break
		}
	}

	res.Removed = d.classifier.Removed() - removedBefore
	res.Confusion = d.eval.Confusion().Sub(confBefore)
	res.Duration = time.Since(start)

	if err := d.classifier.Err(); err != nil {
		observability.RecordError(span, err)
		return res, fmt.Errorf("pass %d: %w", d.round, err)
	}
	if d.opts.VerifyAdjacency {
		if err := d.g.CheckAdjacency(); err != nil {
			observability.RecordError(span, err)
			return res, fmt.Errorf("pass %d: %w", d.round, err)
		}
	}

	observability.RecordPassResult(span, res.Roots, res.Candidates, res.Removed, res.Duration)
	d.opts.Metrics.RecordPass(ctx, string(d.opts.Mode), res.Candidates, res.Removed, res.Duration)

	logger.Info("bubble pass complete",
		"round", res.Round,
		"mode", d.opts.Mode,
		"roots", res.Roots,
		"candidates", res.Candidates,
		"removed", res.Removed,
		"valid_nodes", d.g.NumValidNodes(),
		"duration", res.Duration)
	if d.opts.OnPassEnd != nil {
		d.opts.OnPassEnd(ctx, res)
	}
	return res, nil
}

// Simplify repeats passes until one removes nothing or maxRounds passes
// have run. maxRounds <= 0 means no limit; every changing pass removes at
// least one node, so the loop terminates. ctx is checked between passes.
func (d *Detector) Simplify(ctx context.Context, maxRounds int) (*RunResult, error) {
	ctx, span := observability.StartRunSpan(ctx, string(d.opts.Mode), maxRounds)
	defer span.End()

	start := time.Now()
	out := &RunResult{}
	for maxRounds <= 0 || len(out.Passes) < maxRounds {
		if err := ctx.Err(); err != nil {
			observability.RecordError(span, err)
			out.Duration = time.Since(start)
			return out, err
		}
		res, err := d.Run(ctx)
		if res != nil {
			out.Passes = append(out.Passes, res)
			out.Removed += res.Removed
			out.Confusion = out.Confusion.Add(res.Confusion)
		}
		if err != nil {
			observability.RecordError(span, err)
			out.Duration = time.Since(start)
			return out, err
		}
		if !res.Changed() {
			out.Converged = true
			break
		}
	}
	out.Duration = time.Since(start)
	return out, nil
}
