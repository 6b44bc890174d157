package graph

import (
	"fmt"
	"slices"
)

// NodeID addresses one strand of a node slot. The magnitude is the slot
// index, the sign the strand. Zero is never valid.
type NodeID int64

// Slot returns the slot index addressed by id.
func (id NodeID) Slot() int {
	if id < 0 {
		return int(-id)
	}
	return int(id)
}

// Sign returns +1 for the forward strand and -1 for the reverse strand.
func (id NodeID) Sign() NodeID {
	if id < 0 {
		return -1
	}
	return 1
}

// Arc is a directed overlap as seen from one endpoint.
type Arc struct {
	// Target is the neighbor identifier, expressed from the viewing node's
	// strand.
	Target   NodeID
	Coverage float64
}

// slot is the storage for both strands of one node. Adjacency is stored
// for the forward strand only, sorted by stored neighbor identifier; the
// reverse strand reads the opposite list with negated identifiers.
type slot struct {
	valid    bool
	sequence string
	coverage float64
	right    []Arc // out-arcs of the forward strand
	left     []Arc // in-arcs of the forward strand
}

// Graph is an arena of node slots indexed by NodeID magnitude.
type Graph struct {
	kmerSize int
	slots    []slot // slots[0] is unused
}

// New creates an empty graph whose nodes are built from k-mers of size k.
func New(kmerSize int) *Graph {
	return &Graph{
		kmerSize: kmerSize,
		slots:    make([]slot, 1),
	}
}

// KmerSize returns the k-mer size the graph was built with.
func (g *Graph) KmerSize() int {
	return g.kmerSize
}

// NumNodes returns the number of slots, valid or not. Identifiers range
// over [-NumNodes, NumNodes] without zero.
func (g *Graph) NumNodes() int {
	return len(g.slots) - 1
}

// NumValidNodes counts slots that have not been removed.
func (g *Graph) NumValidNodes() int {
	n := 0
	for i := 1; i < len(g.slots); i++ {
		if g.slots[i].valid {
			n++
		}
	}
	return n
}

// AddNode appends a node with the given forward sequence and coverage and
// returns its forward identifier.
func (g *Graph) AddNode(sequence string, coverage float64) NodeID {
	g.slots = append(g.slots, slot{
		valid:    true,
		sequence: sequence,
		coverage: coverage,
	})
	return NodeID(len(g.slots) - 1)
}

// addTombstone reserves a slot that is invalid from the start, keeping
// identifiers of later slots aligned with a serialized numbering.
func (g *Graph) addTombstone() {
	g.slots = append(g.slots, slot{})
}

// Node returns a view of id. Out-of-range identifiers yield an invalid view.
func (g *Graph) Node(id NodeID) Node {
	return Node{g: g, id: id}
}

// AddArc registers the arc from -> to at both endpoints.
func (g *Graph) AddArc(from, to NodeID, coverage float64) error {
	for _, id := range []NodeID{from, to} {
		if !g.inRange(id) {
			return fmt.Errorf("add arc %d -> %d: %w", from, to, ErrInvalidNodeID)
		}
		if !g.slots[id.Slot()].valid {
			return fmt.Errorf("add arc %d -> %d: node %d: %w", from, to, id, ErrNodeNotFound)
		}
	}

	out, outSign := g.adjacency(from, true)
	if _, found := findArc(*out, to*outSign); found {
		return fmt.Errorf("add arc %d -> %d: %w", from, to, ErrDuplicateArc)
	}
	*out = insertArc(*out, Arc{Target: to * outSign, Coverage: coverage})

	// An arc A -> -A is its own reverse complement and lands in the same
	// list twice; register it once.
	in, inSign := g.adjacency(to, false)
	if _, found := findArc(*in, from*inSign); !found {
		*in = insertArc(*in, Arc{Target: from * inSign, Coverage: coverage})
	}
	return nil
}

// Arcs returns every arc exactly once, in its canonical orientation: of
// A -> B and -B -> -A the lexicographically smaller pair is reported.
func (g *Graph) Arcs() []ArcRecord {
	var records []ArcRecord
	for s := 1; s < len(g.slots); s++ {
		if !g.slots[s].valid {
			continue
		}
		for _, from := range []NodeID{NodeID(s), -NodeID(s)} {
			for _, a := range g.Node(from).OutArcs() {
				if canonical(from, a.Target) {
					records = append(records, ArcRecord{From: from, To: a.Target, Coverage: a.Coverage})
				}
			}
		}
	}
	return records
}

// ArcRecord is a serializable arc.
type ArcRecord struct {
	From     NodeID  `json:"from"`
	To       NodeID  `json:"to"`
	Coverage float64 `json:"coverage"`
}

func canonical(from, to NodeID) bool {
	rf, rt := -to, -from
	if from != rf {
		return from < rf
	}
	return to <= rt
}

func (g *Graph) inRange(id NodeID) bool {
	s := id.Slot()
	return id != 0 && s < len(g.slots)
}

// adjacency returns the stored list holding the out-arcs (out == true) or
// in-arcs of id, and the sign mapping stored identifiers to identifiers as
// seen from id.
func (g *Graph) adjacency(id NodeID, out bool) (*[]Arc, NodeID) {
	s := &g.slots[id.Slot()]
	if (id > 0) == out {
		return &s.right, id.Sign()
	}
	return &s.left, id.Sign()
}

func findArc(list []Arc, stored NodeID) (int, bool) {
	return slices.BinarySearchFunc(list, stored, func(a Arc, t NodeID) int {
		switch {
		case a.Target < t:
			return -1
		case a.Target > t:
			return 1
		}
		return 0
	})
}

func insertArc(list []Arc, a Arc) []Arc {
	i, _ := findArc(list, a.Target)
	return slices.Insert(list, i, a)
}

func removeArc(list []Arc, stored NodeID) ([]Arc, bool) {
	i, found := findArc(list, stored)
	if !found {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}
