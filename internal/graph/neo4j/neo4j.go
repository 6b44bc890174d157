package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/efebarandurmaz/bubbler/internal/graph"
	"github.com/efebarandurmaz/bubbler/internal/observability"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrGraphNotFound is returned by LoadGraph when no graph is stored under
// the requested name.
var ErrGraphNotFound = errors.New("graph not stored")

// Neo4jRepository implements graph.Repository using Neo4j. Each node slot
// becomes a (:SeqNode) keyed by graph name and forward identifier; each
// canonical arc becomes an [:ARC] relationship carrying the signed
// endpoints.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) StoreGraph(ctx context.Context, name string, g *graph.Graph) error {
	ctx, span := observability.StartStorageSpan(ctx, "store", name)
	defer span.End()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	doc := g.ToDocument()
	nodes, arcs := nodeParams(doc), arcParams(doc)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MATCH (n:SeqNode {graph: $name}) DETACH DELETE n",
			map[string]any{"name": name}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"MERGE (g:SeqGraph {name: $name}) SET g.kmer_size = $k",
			map[string]any{"name": name, "k": doc.KmerSize}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"UNWIND $nodes AS node "+
				"CREATE (:SeqNode {graph: $name, id: node.id, sequence: node.sequence, coverage: node.coverage})",
			map[string]any{"name": name, "nodes": nodes}); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx,
			"UNWIND $arcs AS arc "+
				"MATCH (a:SeqNode {graph: $name, id: arc.from_slot}) "+
				"MATCH (b:SeqNode {graph: $name, id: arc.to_slot}) "+
				"CREATE (a)-[:ARC {from: arc.from, to: arc.to, coverage: arc.coverage}]->(b)",
			map[string]any{"name": name, "arcs": arcs})
		return nil, err
	})
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("store graph %s: %w", name, err)
	}
	return nil
}

func (r *Neo4jRepository) LoadGraph(ctx context.Context, name string) (*graph.Graph, error) {
	ctx, span := observability.StartStorageSpan(ctx, "load", name)
	defer span.End()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		header, err := tx.Run(ctx,
			"MATCH (g:SeqGraph {name: $name}) RETURN g.kmer_size AS k",
			map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if !header.Next(ctx) {
			return nil, fmt.Errorf("%s: %w", name, ErrGraphNotFound)
		}
		k, _ := header.Record().Get("k")
		doc := &graph.Document{KmerSize: int(asInt64(k))}

		records, err := tx.Run(ctx,
			"MATCH (n:SeqNode {graph: $name}) RETURN n.id AS id, n.sequence AS sequence, n.coverage AS coverage ORDER BY id",
			map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			id, _ := rec.Get("id")
			seq, _ := rec.Get("sequence")
			cov, _ := rec.Get("coverage")
			node, err := nodeRecord(id, seq, cov)
			if err != nil {
				return nil, err
			}
			doc.Nodes = append(doc.Nodes, node)
		}

		records, err = tx.Run(ctx,
			"MATCH (:SeqNode {graph: $name})-[r:ARC]->(:SeqNode {graph: $name}) "+
				"RETURN r.from AS from, r.to AS to, r.coverage AS coverage",
			map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			from, _ := rec.Get("from")
			to, _ := rec.Get("to")
			cov, _ := rec.Get("coverage")
			doc.Arcs = append(doc.Arcs, graph.ArcRecord{
				From:     graph.NodeID(asInt64(from)),
				To:       graph.NodeID(asInt64(to)),
				Coverage: asFloat64(cov),
			})
		}
		return doc, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("load graph %s: %w", name, err)
	}
	return graph.FromDocument(result.(*graph.Document))
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func nodeParams(doc *graph.Document) []map[string]any {
	params := make([]map[string]any, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		params = append(params, map[string]any{
			"id":       int64(n.ID),
			"sequence": n.Sequence,
			"coverage": n.Coverage,
		})
	}
	return params
}

func arcParams(doc *graph.Document) []map[string]any {
	params := make([]map[string]any, 0, len(doc.Arcs))
	for _, a := range doc.Arcs {
		params = append(params, map[string]any{
			"from":      int64(a.From),
			"to":        int64(a.To),
			"from_slot": int64(a.From.Slot()),
			"to_slot":   int64(a.To.Slot()),
			"coverage":  a.Coverage,
		})
	}
	return params
}

// nodeRecord converts one returned row. A node without a string sequence
// is rejected rather than loaded empty.
func nodeRecord(id, seq, cov any) (graph.NodeRecord, error) {
	s, ok := seq.(string)
	if !ok {
		return graph.NodeRecord{}, fmt.Errorf("node %v has sequence %v: %w", id, seq, graph.ErrMalformedGraph)
	}
	return graph.NodeRecord{
		ID:       graph.NodeID(asInt64(id)),
		Sequence: s,
		Coverage: asFloat64(cov),
	}, nil
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

var _ graph.Repository = (*Neo4jRepository)(nil)
