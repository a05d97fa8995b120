package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory VectorStore. It is intended for tests and
// local development where a Qdrant instance is not available.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	vectorSize int
	points     map[string]Point
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}

	for _, p := range points {
		if len(p.Vec) != coll.vectorSize {
			return fmt.Errorf("vector size mismatch: expected %d, got %d", coll.vectorSize, len(p.Vec))
		}
		vec := make([]float32, len(p.Vec))
		copy(vec, p.Vec)
		meta := make(map[string]any, len(p.Meta))
		for k, v := range p.Meta {
			meta[k] = v
		}
		coll.points[p.ID] = Point{ID: p.ID, Vec: vec, Meta: meta}
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}

	results := make([]SearchResult, 0, len(coll.points))
	for _, p := range coll.points {
		if !matchesFilters(p.Meta, filters) {
			continue
		}
		results = append(results, SearchResult{
			PointID: p.ID,
			Score:   cosineSimilarity(query, p.Vec),
			Meta:    copyMeta(p.Meta),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	for _, id := range ids {
		delete(coll.points, id)
	}
	return nil
}

func (s *MemoryStore) Scroll(ctx context.Context, collection string, filters map[string]any, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}

	ids := make([]string, 0, len(coll.points))
	for id := range coll.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]SearchResult, 0, limit)
	for _, id := range ids {
		p := coll.points[id]
		if !matchesFilters(p.Meta, filters) {
			continue
		}
		results = append(results, SearchResult{PointID: p.ID, Meta: copyMeta(p.Meta)})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	return len(coll.points), nil
}

func (s *MemoryStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[collection]
	return ok, nil
}

func (s *MemoryStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.collections[collection]; ok {
		if coll.vectorSize != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, coll.vectorSize)
		}
		return nil
	}

	s.collections[collection] = &memoryCollection{
		vectorSize: vectorSize,
		points:     make(map[string]Point),
	}
	return nil
}

func (s *MemoryStore) DeleteCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	delete(s.collections, collection)
	return nil
}

func matchesFilters(meta map[string]any, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := meta[field]
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares values the way a serialization round-trip would:
// integer kinds compare across widths.
func looseEqual(a, b any) bool {
	if ai, aok := asInt64(a); aok {
		bi, bok := asInt64(b)
		return bok && ai == bi
	}
	return a == b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func copyMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
