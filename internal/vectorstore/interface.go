package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks personarag/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a point returned by a search or scroll.
// Score is only meaningful for similarity searches.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage backends. All
// operations are scoped to a named collection; tenancy partitioning is the
// caller's concern.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with an optional equality filter
	// over metadata fields.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// Scroll returns up to limit points matching the filter without vector
	// search, in backend order. A nil filter matches everything.
	Scroll(ctx context.Context, collection string, filters map[string]any, limit int) ([]SearchResult, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureCollection creates the collection if absent and validates the
	// vector size if present. Idempotent.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// DeleteCollection drops the collection and all its points.
	DeleteCollection(ctx context.Context, collection string) error
}
