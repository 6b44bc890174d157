package bubble

import (
	"strings"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// Path is one explored walk from a root to its current frontier.
// Extending a path copies its node list, so paths that share a prefix never
// alias each other. Its nodes may be removed
// after the path was built; helpers read the graph as it is now.
type Path struct {
	root     graph.NodeID
	firstHop graph.NodeID
	frontier graph.NodeID
	length   int
	nodes    []graph.NodeID
}

// NewPath starts a path at root. The root contributes no length.
func NewPath(root graph.NodeID) Path {
	return Path{
		root:     root,
		frontier: root,
		nodes:    []graph.NodeID{root},
	}
}

// Extend returns a new path with n appended.
func (p Path) Extend(n graph.Node) Path {
	nodes := make([]graph.NodeID, len(p.nodes)+1)
	copy(nodes, p.nodes)
	nodes[len(p.nodes)] = n.ID()

	ext := Path{
		root:     p.root,
		firstHop: p.firstHop,
		frontier: n.ID(),
		length:   p.length + n.MarginalLength(),
		nodes:    nodes,
	}
	if len(nodes) == 2 {
		ext.firstHop = n.ID()
	}
	return ext
}

// Root returns the branch node the path started from.
func (p Path) Root() graph.NodeID { return p.root }

// FirstHop returns the first node after the root, or 0 for a root-only path.
// It identifies which branch of the root the path belongs to.
func (p Path) FirstHop() graph.NodeID { return p.firstHop }

// Frontier returns the last node of the path.
func (p Path) Frontier() graph.NodeID { return p.frontier }

// Len returns the cumulative marginal length in bases, excluding the root.
func (p Path) Len() int { return p.length }

// NumNodes returns the number of nodes including the root.
func (p Path) NumNodes() int { return len(p.nodes) }

// Nodes returns a copy of the node sequence from root to frontier.
func (p Path) Nodes() []graph.NodeID {
	out := make([]graph.NodeID, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// Sequence concatenates the sequences of every node after the root.
func (p Path) Sequence(g *graph.Graph) string {
	if len(p.nodes) < 2 {
		return ""
	}
	var b strings.Builder
	for _, id := range p.nodes[1:] {
		b.WriteString(g.Node(id).Sequence())
	}
	return b.String()
}

// NodeCoverage averages node coverage over the run of pass-through nodes
// (exactly one in-arc and one out-arc) that directly follows the root.
// It returns -1 when that run is empty.
func (p Path) NodeCoverage(g *graph.Graph) float64 {
	if len(p.nodes) < 2 {
		return -1
	}
	var sum float64
	n := 0
	for _, id := range p.nodes[1:] {
		node := g.Node(id)
		if node.InDegree() != 1 || node.OutDegree() != 1 {
			break
		}
		sum += node.Coverage()
		n++
	}
	if n == 0 {
		return -1
	}
	return sum / float64(n)
}

// ArcCoverage averages the coverage of the arcs leading into the run of
// pass-through nodes that directly follows the root. It returns -1 when
// that run is empty.
func (p Path) ArcCoverage(g *graph.Graph) float64 {
	if len(p.nodes) < 2 {
		return -1
	}
	var sum float64
	n := 0
	prev := p.nodes[0]
	for _, id := range p.nodes[1:] {
		node := g.Node(id)
		if node.InDegree() != 1 || node.OutDegree() != 1 {
			break
		}
		arc, ok := g.Node(prev).OutArc(id)
		if !ok {
			break
		}
		sum += arc.Coverage
		n++
		prev = id
	}
	if n == 0 {
		return -1
	}
	return sum / float64(n)
}

// Excise removes the pass-through run following the root from g.
// See graph.Graph.ExcisePath.
func (p Path) Excise(g *graph.Graph) (int, error) {
	return g.ExcisePath(p.nodes)
}
