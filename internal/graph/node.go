package graph

// Node is a view of one strand of a node slot. It is cheap to copy and
// stays usable after mutations; its accessors always read current state.
type Node struct {
	g  *Graph
	id NodeID
}

// ID returns the identifier the view was created with.
func (n Node) ID() NodeID {
	return n.id
}

// Valid reports whether the identifier addresses a live node.
func (n Node) Valid() bool {
	return n.g.inRange(n.id) && n.g.slots[n.id.Slot()].valid
}

// Sequence returns the node's sequence on this strand.
func (n Node) Sequence() string {
	if !n.g.inRange(n.id) {
		return ""
	}
	seq := n.g.slots[n.id.Slot()].sequence
	if n.id < 0 {
		return ReverseComplement(seq)
	}
	return seq
}

// Length returns the number of bases in the node's sequence.
func (n Node) Length() int {
	if !n.g.inRange(n.id) {
		return 0
	}
	return len(n.g.slots[n.id.Slot()].sequence)
}

// MarginalLength returns the number of bases the node contributes beyond the
// (k-1)-base overlap with a predecessor, which equals its k-mer count.
func (n Node) MarginalLength() int {
	l := n.Length() - n.g.kmerSize + 1
	if n.g.kmerSize == 0 {
		l = n.Length()
	}
	if l < 0 {
		return 0
	}
	return l
}

// Coverage returns the node's estimated k-mer coverage. Both strands share
// the same value.
func (n Node) Coverage() float64 {
	if !n.g.inRange(n.id) {
		return 0
	}
	return n.g.slots[n.id.Slot()].coverage
}

// OutDegree returns the number of outgoing arcs.
func (n Node) OutDegree() int {
	if !n.Valid() {
		return 0
	}
	list, _ := n.g.adjacency(n.id, true)
	return len(*list)
}

// InDegree returns the number of incoming arcs.
func (n Node) InDegree() int {
	if !n.Valid() {
		return 0
	}
	list, _ := n.g.adjacency(n.id, false)
	return len(*list)
}

// IsSimple reports whether the node is a pass-through: at most one
// incoming and at most one outgoing arc.
func (n Node) IsSimple() bool {
	return n.InDegree() <= 1 && n.OutDegree() <= 1
}

// OutArcs returns a copy of the outgoing arcs in ascending target order.
func (n Node) OutArcs() []Arc {
	return n.arcs(true)
}

// InArcs returns a copy of the incoming arcs in ascending source order.
// Each arc's Target is the source node.
func (n Node) InArcs() []Arc {
	return n.arcs(false)
}

// OutArc looks up the outgoing arc towards target.
func (n Node) OutArc(target NodeID) (Arc, bool) {
	return n.arc(true, target)
}

// InArc looks up the incoming arc from source.
func (n Node) InArc(source NodeID) (Arc, bool) {
	return n.arc(false, source)
}

func (n Node) arcs(out bool) []Arc {
	if !n.Valid() {
		return nil
	}
	list, sign := n.g.adjacency(n.id, out)
	arcs := make([]Arc, len(*list))
	if sign > 0 {
		copy(arcs, *list)
		return arcs
	}
	// Negating reverses the order; walk backwards to stay ascending.
	for i, a := range *list {
		arcs[len(arcs)-1-i] = Arc{Target: -a.Target, Coverage: a.Coverage}
	}
	return arcs
}

func (n Node) arc(out bool, neighbor NodeID) (Arc, bool) {
	if !n.Valid() {
		return Arc{}, false
	}
	list, sign := n.g.adjacency(n.id, out)
	i, found := findArc(*list, neighbor*sign)
	if !found {
		return Arc{}, false
	}
	return Arc{Target: neighbor, Coverage: (*list)[i].Coverage}, true
}
