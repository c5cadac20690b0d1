package contract

import (
	"context"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/repository/specification"

	"github.com/google/uuid"
)

type LegalChunkRepository interface {
	Create(ctx context.Context, chunk *entity.LegalChunk, embedding []float32) error
	CreateBulk(ctx context.Context, chunks []*entity.LegalChunk, embeddings [][]float32) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySource(ctx context.Context, source string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns chunks with cosine similarity scores,
	// filtered by threshold and optionally restricted to a legal domain.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, domain string, threshold float64) ([]*entity.ScoredLegalChunk, error)
}
