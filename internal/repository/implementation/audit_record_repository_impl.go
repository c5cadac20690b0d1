package implementation

import (
	"context"
	"errors"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/mapper"
	"legal-triage-be/internal/model"
	"legal-triage-be/internal/repository/contract"
	"legal-triage-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AuditRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AuditRecordMapper
}

func NewAuditRecordRepository(db *gorm.DB) contract.AuditRecordRepository {
	return &AuditRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewAuditRecordMapper(),
	}
}

func (r *AuditRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AuditRecordRepositoryImpl) Create(ctx context.Context, record *entity.AuditRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *AuditRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AuditRecord, error) {
	var m model.AuditRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AuditRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditRecord, error) {
	var models []*model.AuditRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AuditRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AuditRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
