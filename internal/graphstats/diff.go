package graphstats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// DiffType indicates the kind of change.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// GraphDiff is the difference between two versions of a graph that share
// node numbering, typically the input and output of a simplify run.
type GraphDiff struct {
	Nodes   []NodeDiff  `json:"nodes"`
	Arcs    []ArcDiff   `json:"arcs"`
	Summary DiffSummary `json:"summary"`
}

// NodeDiff is a change to one node slot.
type NodeDiff struct {
	ID          graph.NodeID `json:"id"`
	Type        DiffType     `json:"type"`
	OldLength   int          `json:"old_length,omitempty"`
	NewLength   int          `json:"new_length,omitempty"`
	OldCoverage float64      `json:"old_coverage,omitempty"`
	NewCoverage float64      `json:"new_coverage,omitempty"`
}

// ArcDiff is a change to one arc, oriented forward where possible.
type ArcDiff struct {
	From        graph.NodeID `json:"from"`
	To          graph.NodeID `json:"to"`
	Type        DiffType     `json:"type"`
	OldCoverage float64      `json:"old_coverage,omitempty"`
	NewCoverage float64      `json:"new_coverage,omitempty"`
}

// DiffSummary provides aggregate counts about the diff.
type DiffSummary struct {
	NodesAdded    int `json:"nodes_added"`
	NodesRemoved  int `json:"nodes_removed"`
	NodesModified int `json:"nodes_modified"`
	ArcsAdded     int `json:"arcs_added"`
	ArcsRemoved   int `json:"arcs_removed"`
	ArcsModified  int `json:"arcs_modified"`
	BasesRemoved  int `json:"bases_removed"`
}

// Empty reports whether the two graphs are identical.
func (d *GraphDiff) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Arcs) == 0
}

// Diff compares two graphs slot by slot. A node is modified when its
// sequence or coverage changed.
func Diff(old, new *graph.Graph) *GraphDiff {
	d := &GraphDiff{
		Nodes: diffNodes(old, new),
		Arcs:  diffArcs(old, new),
	}
	d.Summary = summarize(d)
	return d
}

func diffNodes(old, new *graph.Graph) []NodeDiff {
	slots := old.NumNodes()
	if new.NumNodes() > slots {
		slots = new.NumNodes()
	}

	var diffs []NodeDiff
	for i := 1; i <= slots; i++ {
		id := graph.NodeID(i)
		o, n := old.Node(id), new.Node(id)
		switch {
		case o.Valid() && !n.Valid():
			diffs = append(diffs, NodeDiff{ID: id, Type: DiffRemoved, OldLength: o.Length(), OldCoverage: o.Coverage()})
		case !o.Valid() && n.Valid():
			diffs = append(diffs, NodeDiff{ID: id, Type: DiffAdded, NewLength: n.Length(), NewCoverage: n.Coverage()})
		case o.Valid() && n.Valid():
			if o.Sequence() == n.Sequence() && o.Coverage() == n.Coverage() {
				continue
			}
			diffs = append(diffs, NodeDiff{
				ID:          id,
				Type:        DiffModified,
				OldLength:   o.Length(),
				NewLength:   n.Length(),
				OldCoverage: o.Coverage(),
				NewCoverage: n.Coverage(),
			})
		}
	}
	return diffs
}

type arcKey struct {
	from, to graph.NodeID
}

func arcMap(g *graph.Graph) map[arcKey]float64 {
	arcs := g.Arcs()
	m := make(map[arcKey]float64, len(arcs))
	for _, a := range arcs {
		a = orient(a)
		m[arcKey{a.From, a.To}] = a.Coverage
	}
	return m
}

func diffArcs(old, new *graph.Graph) []ArcDiff {
	oldMap, newMap := arcMap(old), arcMap(new)

	var diffs []ArcDiff
	for k, oc := range oldMap {
		nc, ok := newMap[k]
		switch {
		case !ok:
			diffs = append(diffs, ArcDiff{From: k.from, To: k.to, Type: DiffRemoved, OldCoverage: oc})
		case nc != oc:
			diffs = append(diffs, ArcDiff{From: k.from, To: k.to, Type: DiffModified, OldCoverage: oc, NewCoverage: nc})
		}
	}
	for k, nc := range newMap {
		if _, ok := oldMap[k]; !ok {
			diffs = append(diffs, ArcDiff{From: k.from, To: k.to, Type: DiffAdded, NewCoverage: nc})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].From != diffs[j].From {
			return diffs[i].From < diffs[j].From
		}
		return diffs[i].To < diffs[j].To
	})
	return diffs
}

func summarize(d *GraphDiff) DiffSummary {
	var s DiffSummary
	for _, nd := range d.Nodes {
		switch nd.Type {
		case DiffAdded:
			s.NodesAdded++
		case DiffRemoved:
			s.NodesRemoved++
			s.BasesRemoved += nd.OldLength
		case DiffModified:
			s.NodesModified++
		}
	}
	for _, ad := range d.Arcs {
		switch ad.Type {
		case DiffAdded:
			s.ArcsAdded++
		case DiffRemoved:
			s.ArcsRemoved++
		case DiffModified:
			s.ArcsModified++
		}
	}
	return s
}

// FormatDiff returns a human-readable rendering of the diff.
func FormatDiff(d *GraphDiff) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Nodes: +%d -%d ~%d (%d bases removed)\n",
		d.Summary.NodesAdded, d.Summary.NodesRemoved, d.Summary.NodesModified, d.Summary.BasesRemoved)
	fmt.Fprintf(&sb, "Arcs:  +%d -%d ~%d\n",
		d.Summary.ArcsAdded, d.Summary.ArcsRemoved, d.Summary.ArcsModified)

	if d.Empty() {
		sb.WriteString("\nNo changes.\n")
		return sb.String()
	}

	if len(d.Nodes) > 0 {
		sb.WriteString("\nNodes:\n")
		for _, nd := range d.Nodes {
			switch nd.Type {
			case DiffAdded:
				fmt.Fprintf(&sb, "  + %d  %dbp x%.1f\n", nd.ID, nd.NewLength, nd.NewCoverage)
			case DiffRemoved:
				fmt.Fprintf(&sb, "  - %d  %dbp x%.1f\n", nd.ID, nd.OldLength, nd.OldCoverage)
			case DiffModified:
				fmt.Fprintf(&sb, "  ~ %d  %dbp x%.1f -> %dbp x%.1f\n",
					nd.ID, nd.OldLength, nd.OldCoverage, nd.NewLength, nd.NewCoverage)
			}
		}
	}

	if len(d.Arcs) > 0 {
		sb.WriteString("\nArcs:\n")
		for _, ad := range d.Arcs {
			switch ad.Type {
			case DiffAdded:
				fmt.Fprintf(&sb, "  + %d -> %d  x%.1f\n", ad.From, ad.To, ad.NewCoverage)
			case DiffRemoved:
				fmt.Fprintf(&sb, "  - %d -> %d  x%.1f\n", ad.From, ad.To, ad.OldCoverage)
			case DiffModified:
				fmt.Fprintf(&sb, "  ~ %d -> %d  x%.1f -> x%.1f\n", ad.From, ad.To, ad.OldCoverage, ad.NewCoverage)
			}
		}
	}
	return sb.String()
}
