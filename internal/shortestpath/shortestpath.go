// Package shortestpath answers single-source distance queries over a
// sequence graph. The cost of a step is the marginal length of the node
// entered, so a distance counts the bases spelled after the source.
package shortestpath

import (
	"fmt"
	"slices"

	"github.com/efebarandurmaz/bubbler/internal/graph"
	"github.com/efebarandurmaz/bubbler/internal/pqueue"
)

// Unlimited disables the distance limit.
const Unlimited = -1

// Tree is the result of a single-source search.
type Tree struct {
	Source graph.NodeID
	dist   map[graph.NodeID]int
	parent map[graph.NodeID]graph.NodeID
}

// Distance returns the distance to id and whether it was reached.
func (t *Tree) Distance(id graph.NodeID) (int, bool) {
	d, ok := t.dist[id]
	return d, ok
}

// Reached returns the number of nodes settled, the source included.
func (t *Tree) Reached() int {
	return len(t.dist)
}

// PathTo returns the nodes from the source to id, or nil if id was not
// reached.
func (t *Tree) PathTo(id graph.NodeID) []graph.NodeID {
	if _, ok := t.dist[id]; !ok {
		return nil
	}
	path := []graph.NodeID{id}
	for id != t.Source {
		id = t.parent[id]
		path = append(path, id)
	}
	slices.Reverse(path)
	return path
}

// From runs Dijkstra from source. Nodes farther than limit are not settled;
// a negative limit means no limit. Ties are settled in discovery order.
func From(g *graph.Graph, source graph.NodeID, limit int) (*Tree, error) {
	return search(g, source, 0, limit)
}

// Distance returns the shortest distance from -> to, stopping as soon as
// to is settled. The boolean is false when to is unreachable within limit.
func Distance(g *graph.Graph, from, to graph.NodeID, limit int) (int, bool, error) {
	if !g.Node(to).Valid() {
		return 0, false, fmt.Errorf("target %d: %w", to, graph.ErrNodeNotFound)
	}
	t, err := search(g, from, to, limit)
	if err != nil {
		return 0, false, err
	}
	d, ok := t.Distance(to)
	return d, ok, nil
}

func search(g *graph.Graph, source, target graph.NodeID, limit int) (*Tree, error) {
	if !g.Node(source).Valid() {
		return nil, fmt.Errorf("source %d: %w", source, graph.ErrNodeNotFound)
	}

	t := &Tree{
		Source: source,
		dist:   make(map[graph.NodeID]int),
		parent: make(map[graph.NodeID]graph.NodeID),
	}
	best := map[graph.NodeID]int{source: 0}

	var q pqueue.Queue[graph.NodeID]
	q.Push(source, 0)
	for q.Len() > 0 {
		id, d := q.Pop()
		if _, done := t.dist[id]; done {
			continue
		}
		t.dist[id] = d
		if id == target {
			break
		}
		for _, a := range g.Node(id).OutArcs() {
			if _, done := t.dist[a.Target]; done {
				continue
			}
			nd := d + g.Node(a.Target).MarginalLength()
			if limit >= 0 && nd > limit {
				continue
			}
			if old, seen := best[a.Target]; seen && old <= nd {
				continue
			}
			best[a.Target] = nd
			t.parent[a.Target] = id
			q.Push(a.Target, nd)
		}
	}
	return t, nil
}
