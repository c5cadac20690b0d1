package mapper

import (
	"encoding/json"
	"time"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LegalChunkMapper struct{}

func NewLegalChunkMapper() *LegalChunkMapper {
	return &LegalChunkMapper{}
}

func (m *LegalChunkMapper) ToEntity(c *model.LegalChunk) *entity.LegalChunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		// Malformed metadata is dropped rather than failing the read
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &entity.LegalChunk{
		Id:        c.Id,
		Content:   c.Content,
		Source:    c.Source,
		Domain:    c.Domain,
		SubDomain: c.SubDomain,
		Metadata:  metadata,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: c.DeletedAt.Valid,
	}
}

func (m *LegalChunkMapper) ToModel(c *entity.LegalChunk, embedding []float32) *model.LegalChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	var metadata datatypes.JSON
	if c.Metadata != nil {
		if raw, err := json.Marshal(c.Metadata); err == nil {
			metadata = raw
		}
	}

	mdl := &model.LegalChunk{
		Id:        c.Id,
		Content:   c.Content,
		Source:    c.Source,
		Domain:    c.Domain,
		SubDomain: c.SubDomain,
		Metadata:  metadata,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
	if embedding != nil {
		mdl.EmbeddingValue = pgvector.NewVector(embedding)
	}
	return mdl
}

func (m *LegalChunkMapper) ToEntities(chunks []*model.LegalChunk) []*entity.LegalChunk {
	entities := make([]*entity.LegalChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
