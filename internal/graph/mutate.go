package graph

import "fmt"

// RemoveNode detaches every arc touching id from both endpoints and
// tombstones the slot. Both strands are removed. It returns false without
// doing anything when the node is already invalid.
func (g *Graph) RemoveNode(id NodeID) bool {
	n := g.Node(id)
	if !n.Valid() {
		return false
	}
	out, in := n.OutArcs(), n.InArcs()
	for _, a := range out {
		g.DeleteInArc(a.Target, id)
	}
	for _, a := range in {
		g.DeleteOutArc(a.Target, id)
	}
	g.invalidate(id)
	return true
}

// DeleteArc removes the arc from -> to at both endpoints. It reports whether
// the arc was registered at from.
func (g *Graph) DeleteArc(from, to NodeID) bool {
	if !g.DeleteOutArc(from, to) {
		return false
	}
	// Self-complementary arcs share one registration, already gone.
	g.DeleteInArc(to, from)
	return true
}

// DeleteOutArc removes only the registration of target in id's out-arcs.
// The caller is responsible for the reciprocal side.
func (g *Graph) DeleteOutArc(id, target NodeID) bool {
	return g.deleteOneSided(id, target, true)
}

// DeleteInArc removes only the registration of source in id's in-arcs.
// The caller is responsible for the reciprocal side.
func (g *Graph) DeleteInArc(id, source NodeID) bool {
	return g.deleteOneSided(id, source, false)
}

func (g *Graph) deleteOneSided(id, neighbor NodeID, out bool) bool {
	if !g.Node(id).Valid() {
		return false
	}
	list, sign := g.adjacency(id, out)
	var removed bool
	*list, removed = removeArc(*list, neighbor*sign)
	return removed
}

// invalidate tombstones a slot and drops its own adjacency without touching
// neighbors.
func (g *Graph) invalidate(id NodeID) {
	s := &g.slots[id.Slot()]
	s.valid = false
	s.left = nil
	s.right = nil
}

// ExcisePath removes the single-in/single-out run that follows the first
// node of path. The second node is excised when it is a pass-through; the
// walk then continues while the next node has been left with no incoming
// arcs and exactly one outgoing arc. Arcs along the run are deleted and
// each interior node is tombstoned. It returns the number of nodes removed.
//
// A missing reciprocal arc means the adjacency was already corrupt;
// ExcisePath stops and returns an error wrapping ErrAdjacencyCorrupt.
func (g *Graph) ExcisePath(path []NodeID) (int, error) {
	if len(path) < 3 {
		return 0, nil
	}
	prev, cur, next := path[0], path[1], path[2]
	rest := path[3:]
	removed := 0

	if n := g.Node(cur); n.Valid() && n.InDegree() == 1 && n.OutDegree() == 1 {
		if !g.DeleteInArc(next, cur) {
			return removed, fmt.Errorf("excise %d: arc %d -> %d: %w", cur, cur, next, ErrAdjacencyCorrupt)
		}
		g.DeleteOutArc(cur, next)
		g.DeleteInArc(cur, prev)
		g.DeleteOutArc(prev, cur)
		g.invalidate(cur)
		removed++
	}

	for len(rest) > 0 {
		n := g.Node(next)
		if !n.Valid() || n.InDegree() != 0 || n.OutDegree() != 1 {
			break
		}
		cur, next, rest = next, rest[0], rest[1:]
		if !g.DeleteInArc(next, cur) {
			return removed, fmt.Errorf("excise %d: arc %d -> %d: %w", cur, cur, next, ErrAdjacencyCorrupt)
		}
		g.DeleteOutArc(cur, next)
		g.invalidate(cur)
		removed++
	}
	return removed, nil
}
