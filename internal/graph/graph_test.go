package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain creates nodes with the given coverages and no arcs.
func buildNodes(t *testing.T, k int, covs ...float64) (*Graph, []NodeID) {
	t.Helper()
	g := New(k)
	ids := make([]NodeID, len(covs))
	for i, c := range covs {
		ids[i] = g.AddNode("ACGTACGT", c)
	}
	return g, ids
}

func TestNodeID_SlotAndSign(t *testing.T) {
	assert.Equal(t, 7, NodeID(7).Slot())
	assert.Equal(t, 7, NodeID(-7).Slot())
	assert.Equal(t, NodeID(1), NodeID(3).Sign())
	assert.Equal(t, NodeID(-1), NodeID(-3).Sign())
}

func TestAddArc_VisibleFromBothStrands(t *testing.T) {
	g, ids := buildNodes(t, 3, 1, 1)
	a, b := ids[0], ids[1]
	require.NoError(t, g.AddArc(a, b, 4))

	out, ok := g.Node(a).OutArc(b)
	require.True(t, ok)
	assert.Equal(t, 4.0, out.Coverage)

	_, ok = g.Node(b).InArc(a)
	assert.True(t, ok, "reciprocal in-arc must be registered")

	// A -> B is the same arc as -B -> -A.
	_, ok = g.Node(-b).OutArc(-a)
	assert.True(t, ok)
	_, ok = g.Node(-a).InArc(-b)
	assert.True(t, ok)

	assert.Equal(t, 1, g.Node(a).OutDegree())
	assert.Equal(t, 0, g.Node(a).InDegree())
	assert.Equal(t, 1, g.Node(-a).InDegree())
	assert.Equal(t, 0, g.Node(-a).OutDegree())
}

func TestAddArc_Errors(t *testing.T) {
	g, ids := buildNodes(t, 3, 1, 1)
	require.NoError(t, g.AddArc(ids[0], ids[1], 1))

	assert.ErrorIs(t, g.AddArc(ids[0], ids[1], 1), ErrDuplicateArc)
	assert.ErrorIs(t, g.AddArc(-ids[1], -ids[0], 1), ErrDuplicateArc, "reverse complement is the same arc")
	assert.ErrorIs(t, g.AddArc(0, ids[1], 1), ErrInvalidNodeID)
	assert.ErrorIs(t, g.AddArc(ids[0], 99, 1), ErrInvalidNodeID)

	g.RemoveNode(ids[1])
	assert.ErrorIs(t, g.AddArc(ids[0], ids[1], 1), ErrNodeNotFound)
}

func TestAddArc_SelfComplementary(t *testing.T) {
	g, ids := buildNodes(t, 3, 1)
	a := ids[0]
	require.NoError(t, g.AddArc(a, -a, 2))

	assert.Equal(t, 1, g.Node(a).OutDegree())
	assert.Equal(t, 1, g.Node(-a).InDegree())
	assert.Len(t, g.Arcs(), 1)

	assert.True(t, g.RemoveNode(a))
	assert.False(t, g.Node(a).Valid())
}

func TestOutArcs_AscendingOnBothStrands(t *testing.T) {
	g, ids := buildNodes(t, 3, 1, 1, 1, 1)
	root := ids[0]
	require.NoError(t, g.AddArc(root, ids[3], 1))
	require.NoError(t, g.AddArc(root, ids[1], 1))
	require.NoError(t, g.AddArc(root, -ids[2], 1))

	var targets []NodeID
	for _, a := range g.Node(root).OutArcs() {
		targets = append(targets, a.Target)
	}
	assert.Equal(t, []NodeID{-ids[2], ids[1], ids[3]}, targets)

	targets = nil
	for _, a := range g.Node(-root).InArcs() {
		targets = append(targets, a.Target)
	}
	assert.Equal(t, []NodeID{-ids[3], -ids[1], ids[2]}, targets)
}

func TestNode_SequenceAndMarginalLength(t *testing.T) {
	g := New(3)
	id := g.AddNode("AACGT", 2)

	assert.Equal(t, "AACGT", g.Node(id).Sequence())
	assert.Equal(t, "ACGTT", g.Node(-id).Sequence())
	assert.Equal(t, 3, g.Node(id).MarginalLength())
	assert.Equal(t, 3, g.Node(-id).MarginalLength())
	assert.Equal(t, 2.0, g.Node(-id).Coverage())

	assert.False(t, g.Node(0).Valid())
	assert.False(t, g.Node(42).Valid())
	assert.Equal(t, "", g.Node(42).Sequence())
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "ACGT", ReverseComplement("ACGT"))
	assert.Equal(t, "NTTGC", ReverseComplement("GCAAX"))
	assert.Equal(t, "", ReverseComplement(""))
}

func TestArcs_Canonical(t *testing.T) {
	g, ids := buildNodes(t, 3, 1, 1, 1)
	require.NoError(t, g.AddArc(ids[0], ids[1], 1))
	require.NoError(t, g.AddArc(-ids[2], ids[1], 1))
	require.NoError(t, g.AddArc(ids[1], ids[2], 1))

	arcs := g.Arcs()
	assert.Len(t, arcs, 3, "each arc is reported once")
}
