package knowledge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"personarag/internal/contextutil"
	"personarag/internal/vectorstore"
)

// scrollBatchSize is the page size used when enumerating a document's
// points for deletion.
const scrollBatchSize = 1024

// statsSampleSize is how many points are sampled to estimate the number
// of distinct documents in a collection.
const statsSampleSize = 10

// Index stores and retrieves knowledge chunks partitioned per persona.
// Each persona gets its own collection; no operation ever crosses
// persona boundaries.
//
// Write and delete operations report success as a boolean instead of an
// error: ingestion must degrade gracefully when the vector backend is
// unavailable, so failures are logged with their root cause and
// swallowed.
type Index struct {
	store       vectorstore.VectorStore
	embedder    Embedder
	vectorSize  int
	defaultTopK int
}

// NewIndex creates a persona-partitioned knowledge index.
func NewIndex(store vectorstore.VectorStore, embedder Embedder, vectorSize, defaultTopK int) *Index {
	return &Index{
		store:       store,
		embedder:    embedder,
		vectorSize:  vectorSize,
		defaultTopK: defaultTopK,
	}
}

// CollectionName returns the backing collection for a persona.
func CollectionName(personaID int64) string {
	return fmt.Sprintf("persona_%d_knowledge", personaID)
}

// CollectionName returns the backing collection for a persona.
func (i *Index) CollectionName(personaID int64) string {
	return CollectionName(personaID)
}

// ChunkID returns the stable identifier for a document's chunk.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// pointID derives the backend point ID from a chunk ID. Qdrant requires
// UUIDs, so the chunk ID is hashed deterministically; the readable chunk
// ID is kept in the payload.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// AddDocument embeds the chunks and stores them in the persona's
// collection, creating it on first use. Returns false if the document
// could not be fully stored.
func (i *Index) AddDocument(ctx context.Context, personaID int64, documentID string, chunks []string, metadata map[string]any) bool {
	logger := contextutil.LoggerFromContext(ctx)
	collection := CollectionName(personaID)

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks to index", "persona_id", personaID, "document_id", documentID)
		return false
	}

	if err := i.store.EnsureCollection(ctx, collection, i.vectorSize); err != nil {
		logger.ErrorContext(ctx, "failed to ensure collection", "collection", collection, "error", err)
		return false
	}

	embeddings, err := i.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed chunks", "document_id", documentID, "chunks", len(chunks), "error", err)
		return false
	}
	if len(embeddings) != len(chunks) {
		logger.ErrorContext(ctx, "embedding count mismatch", "document_id", documentID, "expected", len(chunks), "got", len(embeddings))
		return false
	}

	points := make([]vectorstore.Point, len(chunks))
	for idx, chunk := range chunks {
		chunkID := ChunkID(documentID, idx)

		meta := map[string]any{
			"content":     chunk,
			"chunk_id":    chunkID,
			"chunk_index": idx,
			"document_id": documentID,
		}
		for k, v := range metadata {
			if _, reserved := meta[k]; !reserved {
				meta[k] = v
			}
		}

		points[idx] = vectorstore.Point{
			ID:   pointID(chunkID),
			Vec:  embeddings[idx],
			Meta: meta,
		}
	}

	if err := i.store.Upsert(ctx, collection, points); err != nil {
		logger.ErrorContext(ctx, "failed to upsert chunks", "collection", collection, "document_id", documentID, "error", err)
		return false
	}

	logger.InfoContext(ctx, "indexed document", "persona_id", personaID, "document_id", documentID, "chunks", len(chunks))
	return true
}

// SearchSimilarContent returns the n most similar chunks from the
// persona's collection. n <= 0 falls back to the configured default.
// A non-empty filters map restricts results to chunks whose metadata
// matches every entry by equality. Failures and missing collections
// yield an empty slice.
func (i *Index) SearchSimilarContent(ctx context.Context, personaID int64, query string, n int, filters map[string]any) []SimilarityResult {
	logger := contextutil.LoggerFromContext(ctx)
	collection := CollectionName(personaID)

	if n <= 0 {
		n = i.defaultTopK
	}

	exists, err := i.store.CollectionExists(ctx, collection)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check collection", "collection", collection, "error", err)
		return []SimilarityResult{}
	}
	if !exists {
		logger.DebugContext(ctx, "no knowledge collection for persona", "persona_id", personaID)
		return []SimilarityResult{}
	}

	embeddings, err := i.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(embeddings) != 1 {
		logger.ErrorContext(ctx, "failed to embed query", "persona_id", personaID, "error", err)
		return []SimilarityResult{}
	}

	found, err := i.store.Search(ctx, collection, embeddings[0], n, filters)
	if err != nil {
		logger.ErrorContext(ctx, "similarity search failed", "collection", collection, "error", err)
		return []SimilarityResult{}
	}

	results := make([]SimilarityResult, 0, len(found))
	for _, f := range found {
		content, _ := f.Meta["content"].(string)
		id, _ := f.Meta["chunk_id"].(string)
		if id == "" {
			id = f.PointID
		}

		meta := make(map[string]any, len(f.Meta))
		for k, v := range f.Meta {
			if k == "content" {
				continue
			}
			meta[k] = v
		}

		results = append(results, SimilarityResult{
			ID:       id,
			Content:  content,
			Metadata: meta,
			Distance: f.Score,
		})
	}

	return results
}

// DeleteDocument removes all stored chunks of the document from the
// persona's collection. Returns false if nothing was deleted.
func (i *Index) DeleteDocument(ctx context.Context, personaID int64, documentID string) bool {
	logger := contextutil.LoggerFromContext(ctx)
	collection := CollectionName(personaID)

	exists, err := i.store.CollectionExists(ctx, collection)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check collection", "collection", collection, "error", err)
		return false
	}
	if !exists {
		return false
	}

	filter := map[string]any{"document_id": documentID}
	deleted := 0

	for {
		points, err := i.store.Scroll(ctx, collection, filter, scrollBatchSize)
		if err != nil {
			logger.ErrorContext(ctx, "failed to scroll document chunks", "collection", collection, "document_id", documentID, "error", err)
			return false
		}
		if len(points) == 0 {
			break
		}

		ids := make([]string, len(points))
		for idx, p := range points {
			ids[idx] = p.PointID
		}
		if err := i.store.Delete(ctx, collection, ids); err != nil {
			logger.ErrorContext(ctx, "failed to delete document chunks", "collection", collection, "document_id", documentID, "error", err)
			return false
		}
		deleted += len(ids)

		if len(points) < scrollBatchSize {
			break
		}
	}

	if deleted == 0 {
		logger.DebugContext(ctx, "no chunks found for document", "persona_id", personaID, "document_id", documentID)
		return false
	}

	logger.InfoContext(ctx, "deleted document chunks", "persona_id", personaID, "document_id", documentID, "chunks", deleted)
	return true
}

// GetCollectionStats reports the chunk count and an estimate of distinct
// documents for the persona. A missing collection yields zero stats.
func (i *Index) GetCollectionStats(ctx context.Context, personaID int64) (Stats, error) {
	collection := CollectionName(personaID)

	exists, err := i.store.CollectionExists(ctx, collection)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return Stats{}, nil
	}

	count, err := i.store.Count(ctx, collection)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count chunks: %w", err)
	}

	sample, err := i.store.Scroll(ctx, collection, nil, statsSampleSize)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to sample chunks: %w", err)
	}

	seen := make(map[string]struct{})
	for _, p := range sample {
		if docID, ok := p.Meta["document_id"].(string); ok && docID != "" {
			seen[docID] = struct{}{}
		}
	}

	return Stats{TotalChunks: count, EstimatedDocuments: len(seen)}, nil
}

// ClearPersonaCollection drops the persona's entire collection. Returns
// false on failure.
func (i *Index) ClearPersonaCollection(ctx context.Context, personaID int64) bool {
	logger := contextutil.LoggerFromContext(ctx)
	collection := CollectionName(personaID)

	exists, err := i.store.CollectionExists(ctx, collection)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check collection", "collection", collection, "error", err)
		return false
	}
	if !exists {
		return true
	}

	if err := i.store.DeleteCollection(ctx, collection); err != nil {
		logger.ErrorContext(ctx, "failed to clear persona collection", "collection", collection, "error", err)
		return false
	}

	logger.InfoContext(ctx, "cleared persona collection", "persona_id", personaID)
	return true
}
