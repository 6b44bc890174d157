package graph

import "fmt"

// CheckAdjacency verifies that every arc registered at one endpoint is
// registered at the other and that no arc points at a removed node. It
// returns the first violation found, wrapping ErrAdjacencyCorrupt.
func (g *Graph) CheckAdjacency() error {
	for s := 1; s < len(g.slots); s++ {
		if !g.slots[s].valid {
			if len(g.slots[s].right) > 0 || len(g.slots[s].left) > 0 {
				return fmt.Errorf("node %d: removed node holds arcs: %w", s, ErrAdjacencyCorrupt)
			}
			continue
		}
		for _, id := range []NodeID{NodeID(s), -NodeID(s)} {
			n := g.Node(id)
			for _, a := range n.OutArcs() {
				if _, ok := g.Node(a.Target).InArc(id); !ok {
					return fmt.Errorf("arc %d -> %d: missing at target: %w", id, a.Target, ErrAdjacencyCorrupt)
				}
			}
			for _, a := range n.InArcs() {
				if _, ok := g.Node(a.Target).OutArc(id); !ok {
					return fmt.Errorf("arc %d -> %d: missing at source: %w", a.Target, id, ErrAdjacencyCorrupt)
				}
			}
		}
	}
	return nil
}
