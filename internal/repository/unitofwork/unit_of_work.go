package unitofwork

import (
	"context"

	"legal-triage-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	LegalChunkRepository() contract.LegalChunkRepository
	AuditRecordRepository() contract.AuditRecordRepository
}
