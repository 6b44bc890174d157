package graph

import "context"

// Repository provides persistent storage for sequence graphs.
type Repository interface {
	// StoreGraph persists g under name, replacing any previous version.
	StoreGraph(ctx context.Context, name string, g *Graph) error
	// LoadGraph retrieves the graph stored under name.
	LoadGraph(ctx context.Context, name string) (*Graph, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
