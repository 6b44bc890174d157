package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Document is the serialized form of a Graph.
type Document struct {
	KmerSize int          `json:"kmer_size"`
	Nodes    []NodeRecord `json:"nodes"`
	Arcs     []ArcRecord  `json:"arcs"`
}

// NodeRecord is a serialized node. ID is the forward (positive) identifier.
type NodeRecord struct {
	ID       NodeID  `json:"id"`
	Sequence string  `json:"sequence"`
	Coverage float64 `json:"coverage"`
}

// ToDocument captures the valid nodes and canonical arcs of g.
func (g *Graph) ToDocument() *Document {
	doc := &Document{KmerSize: g.kmerSize, Nodes: []NodeRecord{}, Arcs: g.Arcs()}
	for s := 1; s < len(g.slots); s++ {
		sl := g.slots[s]
		if !sl.valid {
			continue
		}
		doc.Nodes = append(doc.Nodes, NodeRecord{ID: NodeID(s), Sequence: sl.sequence, Coverage: sl.coverage})
	}
	if doc.Arcs == nil {
		doc.Arcs = []ArcRecord{}
	}
	return doc
}

// maxIDGap bounds how many tombstoned slots a document may imply beyond
// twice its node count.
const maxIDGap = 1 << 20

// FromDocument builds a Graph from doc. Node identifiers are preserved;
// gaps in the numbering become tombstoned slots.
func FromDocument(doc *Document) (*Graph, error) {
	if doc.KmerSize < 0 {
		return nil, fmt.Errorf("kmer size %d: %w", doc.KmerSize, ErrMalformedGraph)
	}
	nodes := make([]NodeRecord, len(doc.Nodes))
	copy(nodes, doc.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	maxID := NodeID(2*len(nodes) + maxIDGap)
	if n := len(nodes); n > 0 && nodes[n-1].ID > maxID {
		return nil, fmt.Errorf("node id %d exceeds %d for %d nodes: %w", nodes[n-1].ID, maxID, n, ErrMalformedGraph)
	}

	g := New(doc.KmerSize)
	for i, rec := range nodes {
		if rec.ID <= 0 {
			return nil, fmt.Errorf("node id %d must be positive: %w", rec.ID, ErrMalformedGraph)
		}
		if i > 0 && nodes[i-1].ID == rec.ID {
			return nil, fmt.Errorf("node id %d repeated: %w", rec.ID, ErrMalformedGraph)
		}
		for NodeID(len(g.slots)) < rec.ID {
			g.addTombstone()
		}
		g.AddNode(rec.Sequence, rec.Coverage)
	}
	for _, a := range doc.Arcs {
		if err := g.AddArc(a.From, a.To, a.Coverage); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedGraph, err)
		}
	}
	return g, nil
}

// Decode reads a JSON document from r.
func Decode(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return FromDocument(&doc)
}

// Encode writes g to w as indented JSON.
func Encode(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.ToDocument()); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

// ReadFile loads a graph from a JSON file.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile stores g as a JSON file.
func WriteFile(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	if err := Encode(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
