// Package graphstats summarizes and renders sequence graphs.
package graphstats

import (
	"sort"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// Analyze computes statistics over the valid nodes of g.
func Analyze(g *graph.Graph) *Stats {
	s := &Stats{
		KmerSize: g.KmerSize(),
		Slots:    g.NumNodes(),
	}

	var lengths []int
	var coverage float64
	for slot := 1; slot <= g.NumNodes(); slot++ {
		n := g.Node(graph.NodeID(slot))
		if !n.Valid() {
			continue
		}
		s.ValidNodes++
		lengths = append(lengths, n.Length())
		s.TotalBases += n.Length()
		coverage += n.Coverage()

		in, out := n.InDegree(), n.OutDegree()
		for _, d := range []int{in, out} {
			if d > s.MaxDegree {
				s.MaxDegree = d
				s.HotspotNode = n.ID()
			}
			if d == 0 {
				s.DeadEnds++
			}
		}
		switch classify(n) {
		case kindBranch:
			s.BranchNodes++
		case kindIsolated:
			s.Isolated++
		}
		if n.IsSimple() {
			s.SimpleNodes++
		}
	}

	arcs := g.Arcs()
	s.Arcs = len(arcs)
	if s.ValidNodes > 0 {
		s.MeanCoverage = coverage / float64(s.ValidNodes)
	}
	s.N50 = n50(lengths, s.TotalBases)
	s.Components = countComponents(g, arcs)
	return s
}

func classify(n graph.Node) nodeKind {
	in, out := n.InDegree(), n.OutDegree()
	switch {
	case in == 0 && out == 0:
		return kindIsolated
	case in > 1 || out > 1:
		return kindBranch
	case in == 0 || out == 0:
		return kindTip
	default:
		return kindSimple
	}
}

// n50 is the largest length L such that nodes of length >= L cover at
// least half of total.
func n50(lengths []int, total int) int {
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))
	acc := 0
	for _, l := range lengths {
		acc += l
		if 2*acc >= total {
			return l
		}
	}
	return 0
}

// countComponents counts weakly connected components via union-find.
func countComponents(g *graph.Graph, arcs []graph.ArcRecord) int {
	parent := make(map[int]int)
	var find func(int) int
	find = func(x int) int {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for slot := 1; slot <= g.NumNodes(); slot++ {
		if g.Node(graph.NodeID(slot)).Valid() {
			find(slot)
		}
	}
	for _, a := range arcs {
		union(a.From.Slot(), a.To.Slot())
	}

	roots := make(map[int]bool)
	for x := range parent {
		roots[find(x)] = true
	}
	return len(roots)
}
