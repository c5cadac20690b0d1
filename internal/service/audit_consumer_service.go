package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/pkg/logger"
	"legal-triage-be/internal/repository/unitofwork"
	pkgEvents "legal-triage-be/pkg/events"
	pktNats "legal-triage-be/pkg/nats"
	"legal-triage-be/pkg/triage/audit"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IAuditConsumerService interface {
	Consume(ctx context.Context) error
}

type auditConsumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	natsPub     *pktNats.Publisher
	auditLogger logger.ILogger
}

func NewAuditConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	natsPub *pktNats.Publisher,
	auditLogger logger.ILogger,
) IAuditConsumerService {
	return &auditConsumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		natsPub:     natsPub,
		auditLogger: auditLogger,
	}
}

func (cs *auditConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *auditConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var record audit.Record
	if err := json.Unmarshal(msg.Payload, &record); err != nil {
		log.Printf("[ERROR] Failed to unmarshal audit record: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	sessionId, err := uuid.Parse(record.ChatSessionId)
	if err != nil {
		log.Printf("[ERROR] Invalid session id in audit record: %v", err)
		msg.Ack()
		return
	}
	userId, err := uuid.Parse(record.UserId)
	if err != nil {
		log.Printf("[ERROR] Invalid user id in audit record: %v", err)
		msg.Ack()
		return
	}

	auditEntity := &entity.AuditRecord{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		UserId:        userId,
		Domain:        record.Domain,
		SubDomain:     record.SubDomain,
		Confidence:    record.Confidence,
		FinalStage:    record.FinalStage,
		Outcome:       record.Outcome,
		Trace:         record.Trace,
		CreatedAt:     record.RecordedAt,
	}
	if auditEntity.CreatedAt.IsZero() {
		auditEntity.CreatedAt = time.Now()
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.AuditRecordRepository().Create(ctx, auditEntity); err != nil {
		log.Printf("[ERROR] Failed to persist audit record: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit audit record: %v", err)
		msg.Nack()
		return
	}

	// Forward to the bus so external review tooling can pick it up.
	// Auditing already succeeded locally, so a bus failure only logs.
	if cs.natsPub != nil {
		evt := pkgEvents.BaseEvent{
			Type: "TRIAGE_AUDIT_RECORDED",
			Data: map[string]interface{}{
				"audit_id":        auditEntity.Id,
				"chat_session_id": record.ChatSessionId,
				"user_id":         record.UserId,
				"domain":          record.Domain,
				"outcome":         record.Outcome,
				"confidence":      record.Confidence,
			},
			OccurredAt: time.Now(),
		}
		if err := cs.natsPub.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to forward audit event: %v", err)
		}
	}

	cs.auditLogger.Info("audit", "Audit record stored", map[string]interface{}{
		"audit_id":        auditEntity.Id.String(),
		"chat_session_id": record.ChatSessionId,
		"outcome":         record.Outcome,
		"final_stage":     record.FinalStage,
		"confidence":      record.Confidence,
	})
	msg.Ack()
}
