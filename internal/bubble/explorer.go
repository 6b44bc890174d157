package bubble

import (
	"github.com/efebarandurmaz/bubbler/internal/graph"
	"github.com/efebarandurmaz/bubbler/internal/pqueue"
)

// Length-ratio tolerance for two reconverging paths to count as a bubble.
const (
	MinLengthRatio = 0.8
	MaxLengthRatio = 1.2
)

// Candidate is a pair of branches leaving Root that reconverge at Meet.
// Prev is the first hop of the path that reached Meet first, Ext the first
// hop of the path that reached it later.
type Candidate struct {
	Root       graph.NodeID
	Meet       graph.NodeID
	Prev       graph.NodeID
	Ext        graph.NodeID
	PrevLength int
	ExtLength  int

	// PrevPath and ExtPath run from Root to Meet.
	PrevPath Path
	ExtPath  Path
}

type arcKey struct {
	from, to graph.NodeID
}

// scratch is the bookkeeping of one root's exploration. A node is visited
// once it has a first-arrival path.
type scratch struct {
	expanded     map[arcKey]struct{}
	firstArrival map[graph.NodeID]Path
}

func newScratch() *scratch {
	return &scratch{
		expanded:     make(map[arcKey]struct{}),
		firstArrival: make(map[graph.NodeID]Path),
	}
}

// Explorer runs a bounded best-first search from a branch node and reports
// pairs of branches that reconverge.
type Explorer struct {
	g         *graph.Graph
	maxLength int
}

// NewExplorer returns an explorer over g that stops extending paths once
// they reach maxLength bases.
func NewExplorer(g *graph.Graph, maxLength int) *Explorer {
	return &Explorer{g: g, maxLength: maxLength}
}

// Explore searches from root, calling visit for every candidate as it is
// found. When visit returns true the search of this root stops. It returns
// the number of candidates reported. Roots that are invalid or have fewer
// than two outgoing arcs yield nothing.
//
// Paths are popped shortest first. Every arc is expanded at most once per
// root, which bounds the search on cyclic graphs. Extensions ending in a
// node without outgoing arcs take part in the reconvergence check but are
// not queued.
func (e *Explorer) Explore(root graph.NodeID, visit func(Candidate) bool) int {
	rootNode := e.g.Node(root)
	if !rootNode.Valid() || rootNode.OutDegree() < 2 {
		return 0
	}

	s := newScratch()
	start := NewPath(root)
	s.firstArrival[root] = start

	var q pqueue.Queue[Path]
	q.Push(start, start.Len())

	found := 0
	for q.Len() > 0 {
		cur, _ := q.Pop()
		for _, arc := range e.g.Node(cur.Frontier()).OutArcs() {
			key := arcKey{from: cur.Frontier(), to: arc.Target}
			if _, done := s.expanded[key]; done {
				continue
			}
			s.expanded[key] = struct{}{}

			if cur.Len() >= e.maxLength {
				continue
			}
			next := e.g.Node(arc.Target)
			ext := cur.Extend(next)
			// A dead end can still close a bubble but is never extended.
			if next.OutDegree() > 0 {
				q.Push(ext, ext.Len())
			}

			prev, seen := s.firstArrival[next.ID()]
			if !seen {
				s.firstArrival[next.ID()] = ext
				continue
			}
			if prev.FirstHop() == ext.FirstHop() {
				continue
			}
			if !withinTolerance(prev.Len(), ext.Len()) {
				continue
			}
			found++
			stop := visit(Candidate{
				Root:       root,
				Meet:       next.ID(),
				Prev:       prev.FirstHop(),
				Ext:        ext.FirstHop(),
				PrevLength: prev.Len(),
				ExtLength:  ext.Len(),
				PrevPath:   prev,
				ExtPath:    ext,
			})
			if stop {
				return found
			}
		}
	}
	return found
}

// Extract collects every candidate reachable from root, in discovery order.
func (e *Explorer) Extract(root graph.NodeID) []Candidate {
	var out []Candidate
	e.Explore(root, func(c Candidate) bool {
		out = append(out, c)
		return false
	})
	return out
}

// withinTolerance reports whether ext/prev lies in [MinLengthRatio,
// MaxLengthRatio]. A zero-length previous path (the root itself) never
// qualifies.
func withinTolerance(prev, ext int) bool {
	if prev == 0 {
		return false
	}
	r := float64(ext) / float64(prev)
	return r >= MinLengthRatio && r <= MaxLengthRatio
}
