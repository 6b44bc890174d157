package graphstats

import "github.com/efebarandurmaz/bubbler/internal/graph"

// Stats holds computed metrics about a sequence graph.
type Stats struct {
	KmerSize   int `json:"kmer_size"`
	Slots      int `json:"slots"`       // allocated, removed included
	ValidNodes int `json:"valid_nodes"`
	Arcs       int `json:"arcs"`        // canonical, one per strand pair
	TotalBases int `json:"total_bases"`

	MaxDegree   int          `json:"max_degree"`   // most arcs on one side of a node
	HotspotNode graph.NodeID `json:"hotspot_node"` // node with MaxDegree
	BranchNodes int          `json:"branch_nodes"` // in or out degree above one
	SimpleNodes int          `json:"simple_nodes"`
	DeadEnds    int          `json:"dead_ends"` // node sides with no arcs
	Isolated    int          `json:"isolated"`

	MeanCoverage float64 `json:"mean_coverage"`
	N50          int     `json:"n50"`

	// Components counts weakly connected components over slots.
	Components int `json:"components"`
}

// Snapshot is a graph with its statistics, as exported to JSON.
type Snapshot struct {
	Stats *Stats          `json:"stats"`
	Graph *graph.Document `json:"graph"`
}

// nodeKind classifies nodes for rendering.
type nodeKind string

const (
	kindSimple   nodeKind = "simple"
	kindBranch   nodeKind = "branch"
	kindTip      nodeKind = "tip"
	kindIsolated nodeKind = "isolated"
)
