package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/repository/unitofwork"
	"legal-triage-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Chat Session Repository", func(t *testing.T) {
		count, err := uow.ChatSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Chat session count: %d", count)
	})

	t.Run("Check Legal Chunk Repository", func(t *testing.T) {
		// Count implies the table and vector column exist
		count, err := uow.LegalChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Legal chunk count: %d", count)
	})

	t.Run("Check Transactional Session With Audit", func(t *testing.T) {
		userId := uuid.New()
		sessionId := uuid.New()

		ctx := context.Background()
		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		session := &entity.ChatSession{
			Id:        sessionId,
			UserId:    userId,
			Title:     "Integration Test Session",
			Domain:    "Consumer Law",
			SubDomain: "Product Defects",
			CreatedAt: time.Now(),
		}
		err = uow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		message := &entity.ChatMessage{
			Id:            uuid.New(),
			Chat:          "My phone stopped working two days after purchase.",
			Role:          "user",
			Stage:         "intake",
			ChatSessionId: sessionId,
			CreatedAt:     time.Now(),
		}
		err = uow.ChatMessageRepository().Create(ctx, message)
		assert.NoError(t, err)

		record := &entity.AuditRecord{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			UserId:        userId,
			Domain:        "Consumer Law",
			SubDomain:     "Product Defects",
			Confidence:    0.82,
			FinalStage:    "validate",
			Outcome:       "answered",
			Trace: []map[string]interface{}{
				{"stage": "intake", "detail": map[string]interface{}{"valid": true}},
			},
			CreatedAt: time.Now(),
		}
		err = uow.AuditRecordRepository().Create(ctx, record)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully created Session, Message and Audit Record in Transaction")
	})
}
