// Package graph provides the sequence graph consumed by the simplification
// passes.
//
// Nodes are maximal non-branching chains of overlapping k-mers. Each node
// lives in a numbered slot; a signed NodeID addresses one strand of a slot,
// positive for the stored sequence and negative for its reverse complement.
// Arcs are directed overlaps between chain ends. An arc A -> B is the same
// arc as -B -> -A, so every arc is visible from both strands.
//
// # Ownership Model
//
// The Graph owns all node and arc storage. Node values returned by
// Graph.Node are lightweight views (graph pointer plus identifier); they
// never hold copies of adjacency and every mutation goes through the Graph.
//
// # Lifecycle
//
// Removed nodes are tombstoned, never reclaimed, so identifiers stay stable
// for the lifetime of a run.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. Simplification passes must be
// serialized against any other stage that mutates the graph.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrInvalidNodeID is returned for the zero identifier or an identifier
	// whose slot is outside the graph.
	ErrInvalidNodeID = errors.New("invalid node identifier")

	// ErrNodeNotFound is returned when an arc references a tombstoned node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateArc is returned when adding an arc that already exists
	// in either strand orientation.
	ErrDuplicateArc = errors.New("duplicate arc")

	// ErrAdjacencyCorrupt signals that an arc registered at one endpoint has
	// no reciprocal registration at the other. Callers must stop mutating
	// the graph when they see it.
	ErrAdjacencyCorrupt = errors.New("adjacency corrupt: missing reciprocal arc")

	// ErrMalformedGraph is returned when a serialized graph cannot be
	// turned into a consistent Graph.
	ErrMalformedGraph = errors.New("malformed graph document")
)
