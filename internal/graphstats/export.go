package graphstats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// ExportDOT generates a Graphviz DOT representation of g. Each slot is one
// vertex; arcs are labelled with the strands they join and their coverage.
func ExportDOT(g *graph.Graph, name string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("digraph %s {\n", sanitizeID(name)))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for slot := 1; slot <= g.NumNodes(); slot++ {
		n := g.Node(graph.NodeID(slot))
		if !n.Valid() {
			continue
		}
		kind := classify(n)
		b.WriteString(fmt.Sprintf("  \"n%d\" [label=\"%d\\n%dbp x%.1f\" shape=%s style=filled fillcolor=\"%s\"];\n",
			slot, slot, n.Length(), n.Coverage(), nodeShape(kind), nodeColor(kind)))
	}
	if g.NumValidNodes() > 0 {
		b.WriteString("\n")
	}

	for _, a := range g.Arcs() {
		a = orient(a)
		b.WriteString(fmt.Sprintf("  \"n%d\" -> \"n%d\" [label=\"%s %.1f\" style=%s];\n",
			a.From.Slot(), a.To.Slot(), strands(a), a.Coverage, arcStyle(a)))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of g.
func ExportMermaid(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for slot := 1; slot <= g.NumNodes(); slot++ {
		n := g.Node(graph.NodeID(slot))
		if !n.Valid() {
			continue
		}
		b.WriteString(fmt.Sprintf("  n%d%s\n", slot, mermaidNodeShape(classify(n), slot, n)))
	}

	for _, a := range g.Arcs() {
		a = orient(a)
		b.WriteString(fmt.Sprintf("  n%d %s|%s| n%d\n",
			a.From.Slot(), mermaidArrow(a), strands(a), a.To.Slot()))
	}

	return b.String()
}

// ExportJSON serializes g and its statistics to JSON.
func ExportJSON(g *graph.Graph) ([]byte, error) {
	return json.MarshalIndent(Snapshot{Stats: Analyze(g), Graph: g.ToDocument()}, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(s *Stats) string {
	var b strings.Builder
	b.WriteString("Sequence Graph Statistics\n")
	b.WriteString("=========================\n\n")
	b.WriteString(fmt.Sprintf("k-mer size:  %d\n", s.KmerSize))
	b.WriteString(fmt.Sprintf("Nodes:       %d valid of %d slots\n", s.ValidNodes, s.Slots))
	b.WriteString(fmt.Sprintf("  Simple:    %d\n", s.SimpleNodes))
	b.WriteString(fmt.Sprintf("  Branch:    %d\n", s.BranchNodes))
	b.WriteString(fmt.Sprintf("  Isolated:  %d\n", s.Isolated))
	b.WriteString(fmt.Sprintf("Dead ends:   %d\n", s.DeadEnds))
	b.WriteString(fmt.Sprintf("Arcs:        %d\n", s.Arcs))
	b.WriteString(fmt.Sprintf("Max degree:  %d (%d)\n", s.MaxDegree, s.HotspotNode))
	b.WriteString(fmt.Sprintf("Bases:       %d\n", s.TotalBases))
	b.WriteString(fmt.Sprintf("N50:         %d\n", s.N50))
	b.WriteString(fmt.Sprintf("Coverage:    %.2f mean\n", s.MeanCoverage))
	b.WriteString(fmt.Sprintf("Components:  %d\n", s.Components))
	return b.String()
}

func sanitizeID(s string) string {
	if s == "" {
		return "sequences"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

// orient reports an arc between two reverse strands as its forward twin.
func orient(a graph.ArcRecord) graph.ArcRecord {
	if a.From < 0 && a.To < 0 {
		a.From, a.To = -a.To, -a.From
	}
	return a
}

func strands(a graph.ArcRecord) string {
	sign := func(id graph.NodeID) string {
		if id < 0 {
			return "-"
		}
		return "+"
	}
	return sign(a.From) + sign(a.To)
}

func nodeShape(kind nodeKind) string {
	switch kind {
	case kindBranch:
		return "diamond"
	case kindTip:
		return "ellipse"
	case kindIsolated:
		return "plaintext"
	default:
		return "box"
	}
}

func nodeColor(kind nodeKind) string {
	switch kind {
	case kindSimple:
		return "#238636"
	case kindBranch:
		return "#d29922"
	case kindTip:
		return "#8957e5"
	default:
		return "#30363d"
	}
}

// arcStyle draws strand-switching arcs dashed.
func arcStyle(a graph.ArcRecord) string {
	if a.From.Sign() != a.To.Sign() {
		return "dashed"
	}
	return "solid"
}

func mermaidNodeShape(kind nodeKind, slot int, n graph.Node) string {
	label := fmt.Sprintf("%d: %dbp", slot, n.Length())
	switch kind {
	case kindBranch:
		return fmt.Sprintf("{\"%s\"}", label)
	case kindTip:
		return fmt.Sprintf("([\"%s\"])", label)
	default:
		return fmt.Sprintf("[\"%s\"]", label)
	}
}

func mermaidArrow(a graph.ArcRecord) string {
	if a.From.Sign() != a.To.Sign() {
		return "-.->"
	}
	return "-->"
}
