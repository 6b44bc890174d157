package bubble

import (
	"log/slog"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// Policy names the topology case a candidate fell into.
type Policy string

const (
	PolicySimpleSimple   Policy = "simple/simple"
	PolicySimpleComplex  Policy = "simple/complex"
	PolicyComplexComplex Policy = "complex/complex"
)

// Decision is the outcome of resolving one candidate. Removed is the node
// that was deleted, or 0 when both branches were kept; RemovedNodes counts
// every node that went with it. Coverages are averaged over the
// pass-through run after the root as it stood before removal, -1 when the
// run is empty. Round is set by the Detector.
type Decision struct {
	Round   int
	Root    graph.NodeID
	Prev    graph.NodeID
	Ext     graph.NodeID
	Policy  Policy
	Removed graph.NodeID

	RemovedNodes    int
	PrevCoverage    float64
	ExtCoverage     float64
	PrevArcCoverage float64
	ExtArcCoverage  float64
}

// Classifier decides which branch of a candidate bubble to delete and
// deletes it. Nodes with coverage at or above the cutoff are never removed.
type Classifier struct {
	g      *graph.Graph
	cutoff float64
	eval   Evaluator
	logger *slog.Logger

	// OnDecision, when set, is called after every resolved candidate.
	OnDecision func(Decision)

	// ExciseRuns removes a deleted simple branch together with the rest of
	// its pass-through run instead of the first node alone.
	ExciseRuns bool

	removed int
	err     error
}

// NewClassifier returns a classifier over g. A nil evaluator records nothing.
func NewClassifier(g *graph.Graph, cutoff float64, eval Evaluator) *Classifier {
	if eval == nil {
		eval = NopEvaluator()
	}
	return &Classifier{
		g:      g,
		cutoff: cutoff,
		eval:   eval,
		logger: slog.Default(),
	}
}

// Removed returns the number of nodes removed so far.
func (c *Classifier) Removed() int { return c.removed }

// Err returns the first adjacency error hit while excising, if any. Once
// set, Resolve refuses further candidates.
func (c *Classifier) Err() error { return c.err }

// branch is one side of a candidate: its first node and explored path.
type branch struct {
	node graph.Node
	path Path
}

// Resolve applies the removal policy to a candidate and reports whether a
// node was removed. It also returns true after an excision error so that
// exploration of the root stops.
func (c *Classifier) Resolve(cand Candidate) bool {
	if c.err != nil {
		return true
	}
	prev := branch{c.g.Node(cand.Prev), cand.PrevPath}
	ext := branch{c.g.Node(cand.Ext), cand.ExtPath}
	d := Decision{
		Root:            cand.Root,
		Prev:            cand.Prev,
		Ext:             cand.Ext,
		PrevCoverage:    prev.path.NodeCoverage(c.g),
		ExtCoverage:     ext.path.NodeCoverage(c.g),
		PrevArcCoverage: prev.path.ArcCoverage(c.g),
		ExtArcCoverage:  ext.path.ArcCoverage(c.g),
	}

	var gone branch
	switch {
	case prev.node.IsSimple() && ext.node.IsSimple():
		d.Policy = PolicySimpleSimple
		gone, d.RemovedNodes = c.resolveSimple(prev, ext)
	case prev.node.IsSimple():
		d.Policy = PolicySimpleComplex
		gone, d.RemovedNodes = c.resolveOneSided(prev)
	case ext.node.IsSimple():
		d.Policy = PolicySimpleComplex
		gone, d.RemovedNodes = c.resolveOneSided(ext)
	default:
		d.Policy = PolicyComplexComplex
		gone, d.RemovedNodes = c.resolveComplex(prev, ext)
	}

	if d.RemovedNodes > 0 {
		d.Removed = gone.node.ID()
		c.removed += d.RemovedNodes
		c.logger.Debug("bubble branch removed",
			"root", d.Root, "removed", d.Removed, "policy", d.Policy,
			"nodes", d.RemovedNodes,
			"coverage", gone.node.Coverage(),
			"branch_sequence", gone.path.Sequence(c.g))
	}
	if c.OnDecision != nil {
		c.OnDecision(d)
	}
	return d.RemovedNodes > 0 || c.err != nil
}

// remove deletes the first node of a simple branch, or its whole
// pass-through run when ExciseRuns is set. It returns the number of nodes
// removed; an already removed branch yields 0.
func (c *Classifier) remove(b branch) int {
	if !b.node.Valid() {
		return 0
	}
	if c.ExciseRuns && b.path.NumNodes() >= 3 {
		n, err := b.path.Excise(c.g)
		if err != nil {
			c.err = err
		}
		return n
	}
	if c.g.RemoveNode(b.node.ID()) {
		return 1
	}
	return 0
}

// resolveSimple handles two pass-through branches. The lower-coverage side
// goes if it is below the cutoff; on a tie prev is tried first and ext is
// the fallback when prev is already gone.
func (c *Classifier) resolveSimple(prev, ext branch) (branch, int) {
	pc, ec := prev.node.Coverage(), ext.node.Coverage()
	removePrev := pc <= ec && pc < c.cutoff
	removeExt := ec < pc && ec < c.cutoff
	if pc == ec && pc < c.cutoff {
		removeExt = true
	}

	if !removePrev && !removeExt {
		c.eval.Score(prev.node.ID(), false)
		c.eval.Score(ext.node.ID(), false)
		return branch{}, 0
	}
	if removePrev {
		c.eval.Score(prev.node.ID(), true)
		if n := c.remove(prev); n > 0 {
			return prev, n
		}
	}
	if removeExt {
		c.eval.Score(ext.node.ID(), true)
		if n := c.remove(ext); n > 0 {
			return ext, n
		}
	}
	return branch{}, 0
}

// resolveOneSided handles a simple branch facing a hub. Only the simple
// side is eligible.
func (c *Classifier) resolveOneSided(simple branch) (branch, int) {
	if simple.node.Coverage() >= c.cutoff {
		c.eval.Score(simple.node.ID(), false)
		return branch{}, 0
	}
	c.eval.Score(simple.node.ID(), true)
	if n := c.remove(simple); n > 0 {
		return simple, n
	}
	return branch{}, 0
}

// resolveComplex handles two hub branches: the strictly lower-coverage side
// goes if it is below the cutoff. Hubs are removed alone.
func (c *Classifier) resolveComplex(prev, ext branch) (branch, int) {
	pc, ec := prev.node.Coverage(), ext.node.Coverage()

	if pc < ec && pc < c.cutoff {
		c.eval.Score(prev.node.ID(), true)
		if c.g.RemoveNode(prev.node.ID()) {
			return prev, 1
		}
	} else {
		c.eval.Score(prev.node.ID(), false)
	}

	if ec < pc && ec < c.cutoff {
		c.eval.Score(ext.node.ID(), true)
		if c.g.RemoveNode(ext.node.ID()) {
			return ext, 1
		}
	} else {
		c.eval.Score(ext.node.ID(), false)
	}
	return branch{}, 0
}
