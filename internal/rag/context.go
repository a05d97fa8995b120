package rag

import (
	"context"
	"fmt"
	"strings"

	"personarag/internal/contextutil"
	"personarag/internal/knowledge"
)

// maxContextDocuments caps how many retrieved chunks go into the
// assembled context block.
const maxContextDocuments = 3

// maxDocumentChars caps how much of each chunk is included, in runes.
const maxDocumentChars = 500

// Searcher is the slice of the knowledge index the builder needs.
type Searcher interface {
	SearchSimilarContent(ctx context.Context, personaID int64, query string, n int, filters map[string]any) []knowledge.SimilarityResult
}

// ContextBuilder assembles a prompt-ready context block from a persona's
// knowledge base.
type ContextBuilder struct {
	searcher Searcher
}

// NewContextBuilder creates a context builder over the given searcher.
func NewContextBuilder(searcher Searcher) *ContextBuilder {
	return &ContextBuilder{searcher: searcher}
}

// RelevantContext retrieves the chunks most relevant to the query from
// the persona's knowledge base and formats them into a block suitable
// for inclusion in an LLM prompt. Returns the empty string when nothing
// relevant is found.
func (b *ContextBuilder) RelevantContext(ctx context.Context, personaID int64, query string) string {
	logger := contextutil.LoggerFromContext(ctx)

	// Search with the index default top-K, keep the best few.
	results := b.searcher.SearchSimilarContent(ctx, personaID, query, 0, nil)
	if len(results) == 0 {
		logger.DebugContext(ctx, "no relevant knowledge found", "persona_id", personaID)
		return ""
	}
	if len(results) > maxContextDocuments {
		results = results[:maxContextDocuments]
	}

	var sb strings.Builder
	sb.WriteString("KNOWLEDGE BASE CONTEXT:\n")

	for i, result := range results {
		content := result.Content
		if runes := []rune(content); len(runes) > maxDocumentChars {
			content = string(runes[:maxDocumentChars]) + "..."
		}

		// The title is optional; untitled chunks get a bare document header.
		if title, ok := result.Metadata["title"].(string); ok && title != "" {
			sb.WriteString(fmt.Sprintf("\nDocument %d - %s:\n", i+1, title))
		} else {
			sb.WriteString(fmt.Sprintf("\nDocument %d:\n", i+1))
		}
		sb.WriteString(content)
		sb.WriteString("\n---\n")
	}

	logger.DebugContext(ctx, "assembled knowledge context", "persona_id", personaID, "documents", len(results))
	return sb.String()
}
