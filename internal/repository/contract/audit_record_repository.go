package contract

import (
	"context"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/repository/specification"
)

type AuditRecordRepository interface {
	Create(ctx context.Context, record *entity.AuditRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AuditRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
