package knowledge

import "context"

// SimilarityResult is a single chunk returned from a similarity search.
// Distance is the cosine similarity score reported by the backend,
// higher meaning more similar.
type SimilarityResult struct {
	ID       string
	Content  string
	Metadata map[string]any
	Distance float32
}

// Stats summarizes the contents of one persona's collection.
// EstimatedDocuments is derived from a sample of stored chunks, not an
// exact count.
type Stats struct {
	TotalChunks        int
	EstimatedDocuments int
}

// Embedder generates embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
