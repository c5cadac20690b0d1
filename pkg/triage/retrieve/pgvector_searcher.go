package retrieve

import (
	"context"
	"fmt"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/repository/unitofwork"
	"legal-triage-be/pkg/embedding"
)

// PgVectorSearcher runs similarity search over the legal chunk corpus stored
// in postgres with pgvector.
type PgVectorSearcher struct {
	uowFactory        func() unitofwork.UnitOfWork
	embeddingProvider embedding.EmbeddingProvider
}

var _ Searcher = &PgVectorSearcher{}

func NewPgVectorSearcher(uowFactory func() unitofwork.UnitOfWork, embeddingProvider embedding.EmbeddingProvider) *PgVectorSearcher {
	return &PgVectorSearcher{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (s *PgVectorSearcher) Search(ctx context.Context, query string, k int, domainFilter string, scoreThreshold float64) ([]Document, error) {
	resp, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	uow := s.uowFactory()
	scored, err := uow.LegalChunkRepository().SearchSimilarWithScore(ctx, resp.Embedding.Values, k, domainFilter, scoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	docs := make([]Document, 0, len(scored))
	for _, sc := range scored {
		docs = append(docs, chunkToDocument(sc.Chunk, sc.Score))
	}
	return docs, nil
}

func chunkToDocument(chunk *entity.LegalChunk, score float64) Document {
	doc := Document{
		ID:      chunk.Id.String(),
		Content: chunk.Content,
		Domain:  chunk.Domain,
		Score:   score,
	}
	doc.Title = metadataString(chunk.Metadata, "act_name", "title")
	doc.Section = metadataString(chunk.Metadata, "section")
	doc.Chapter = metadataString(chunk.Metadata, "chapter")
	doc.SourceURL = metadataString(chunk.Metadata, "source_url", "url")
	if doc.Title == "" {
		doc.Title = chunk.Source
	}
	return doc
}

func metadataString(metadata map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := metadata[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
