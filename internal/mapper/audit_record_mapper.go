package mapper

import (
	"encoding/json"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/model"

	"gorm.io/datatypes"
)

type AuditRecordMapper struct{}

func NewAuditRecordMapper() *AuditRecordMapper {
	return &AuditRecordMapper{}
}

func (m *AuditRecordMapper) ToEntity(r *model.AuditRecord) *entity.AuditRecord {
	if r == nil {
		return nil
	}

	var trace []map[string]interface{}
	if len(r.Trace) > 0 {
		_ = json.Unmarshal(r.Trace, &trace)
	}

	return &entity.AuditRecord{
		Id:            r.Id,
		ChatSessionId: r.ChatSessionId,
		UserId:        r.UserId,
		Domain:        r.Domain,
		SubDomain:     r.SubDomain,
		Confidence:    r.Confidence,
		FinalStage:    r.FinalStage,
		Outcome:       r.Outcome,
		Trace:         trace,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *AuditRecordMapper) ToModel(r *entity.AuditRecord) *model.AuditRecord {
	if r == nil {
		return nil
	}

	var trace datatypes.JSON
	if r.Trace != nil {
		if raw, err := json.Marshal(r.Trace); err == nil {
			trace = raw
		}
	}

	return &model.AuditRecord{
		Id:            r.Id,
		ChatSessionId: r.ChatSessionId,
		UserId:        r.UserId,
		Domain:        r.Domain,
		SubDomain:     r.SubDomain,
		Confidence:    r.Confidence,
		FinalStage:    r.FinalStage,
		Outcome:       r.Outcome,
		Trace:         trace,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *AuditRecordMapper) ToEntities(records []*model.AuditRecord) []*entity.AuditRecord {
	entities := make([]*entity.AuditRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
