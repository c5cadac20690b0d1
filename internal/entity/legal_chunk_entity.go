package entity

import (
	"time"

	"github.com/google/uuid"
)

// LegalChunk is one passage from the ingested legal knowledge corpus.
type LegalChunk struct {
	Id        uuid.UUID
	Content   string
	Source    string
	Domain    string
	SubDomain string
	Metadata  map[string]interface{}
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// ScoredLegalChunk pairs a chunk with its similarity score from a vector search.
type ScoredLegalChunk struct {
	Chunk *LegalChunk
	Score float64
}
