package bubble

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// Slot numbers used by the fixtures below.
const (
	A graph.NodeID = iota + 1
	B
	C
	D
	E
	F
	G
)

type nodeDef struct {
	seq string
	cov float64
}

// build creates a k=3 graph whose slots are numbered in the order given.
func build(t *testing.T, nodes []nodeDef, arcs [][2]graph.NodeID) *graph.Graph {
	t.Helper()
	g := graph.New(3)
	for _, n := range nodes {
		g.AddNode(n.seq, n.cov)
	}
	for _, a := range arcs {
		require.NoError(t, g.AddArc(a[0], a[1], 1))
	}
	return g
}

// diamond builds A -> {B, C} -> D -> E. Every node has marginal length 3.
func diamond(t *testing.T, covB, covC float64) *graph.Graph {
	t.Helper()
	return build(t,
		[]nodeDef{{"AAACG", 10}, {"ACGTT", covB}, {"ACGGT", covC}, {"GTTCA", 10}, {"TCAGA", 10}},
		[][2]graph.NodeID{{A, B}, {A, C}, {B, D}, {C, D}, {D, E}},
	)
}

// sink builds A -> {B, C} -> D with D a dead end.
func sink(t *testing.T, covB, covC float64) *graph.Graph {
	t.Helper()
	return build(t,
		[]nodeDef{{"AAACG", 10}, {"ACGTT", covB}, {"ACGGT", covC}, {"GTTCA", 10}},
		[][2]graph.NodeID{{A, B}, {A, C}, {B, D}, {C, D}},
	)
}

// longDiamond builds A -> B -> F -> D and A -> C -> G -> D, then D -> E.
// Each branch is a run of two pass-through nodes.
func longDiamond(t *testing.T, covLow, covHigh float64) *graph.Graph {
	t.Helper()
	return build(t,
		[]nodeDef{
			{"AAACG", 10}, {"ACGTT", covLow}, {"ACGGT", covHigh}, {"GTTCA", 10},
			{"TCAGA", 10}, {"GTTAC", covLow}, {"GGTAC", covHigh},
		},
		[][2]graph.NodeID{{A, B}, {B, F}, {F, D}, {A, C}, {C, G}, {G, D}, {D, E}},
	)
}

// fan builds A -> {B, C, F} -> D -> E.
func fan(t *testing.T, covB, covC, covF float64) *graph.Graph {
	t.Helper()
	return build(t,
		[]nodeDef{
			{"AAACG", 10}, {"ACGTT", covB}, {"ACGGT", covC},
			{"GTTCA", 10}, {"TCAGA", 10}, {"ACGAT", covF},
		},
		[][2]graph.NodeID{{A, B}, {A, C}, {A, F}, {B, D}, {C, D}, {F, D}, {D, E}},
	)
}

// withoutPaths drops the explored paths so candidates compare by value.
func withoutPaths(c Candidate) Candidate {
	c.PrevPath, c.ExtPath = Path{}, Path{}
	return c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// assertDetached fails when any surviving node lists id's slot as a
// neighbor in either direction.
func assertDetached(t *testing.T, g *graph.Graph, id graph.NodeID) {
	t.Helper()
	for s := 1; s <= g.NumNodes(); s++ {
		for _, n := range []graph.NodeID{graph.NodeID(s), -graph.NodeID(s)} {
			for _, a := range g.Node(n).OutArcs() {
				assert.NotEqual(t, id.Slot(), a.Target.Slot(), "out-arc of %d references %d", n, id)
			}
			for _, a := range g.Node(n).InArcs() {
				assert.NotEqual(t, id.Slot(), a.Target.Slot(), "in-arc of %d references %d", n, id)
			}
		}
	}
	assert.NoError(t, g.CheckAdjacency())
}
