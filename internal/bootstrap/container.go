package bootstrap

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"legal-triage-be/internal/config"
	"legal-triage-be/internal/controller"
	"legal-triage-be/internal/pkg/logger"
	"legal-triage-be/internal/repository/memory"
	"legal-triage-be/internal/repository/unitofwork"
	"legal-triage-be/internal/service"
	"legal-triage-be/pkg/embedding"
	"legal-triage-be/pkg/llm/factory"
	pktNats "legal-triage-be/pkg/nats"
	"legal-triage-be/pkg/triage/audit"
	"legal-triage-be/pkg/triage/clarify"
	"legal-triage-be/pkg/triage/classify"
	"legal-triage-be/pkg/triage/executor"
	"legal-triage-be/pkg/triage/history"
	"legal-triage-be/pkg/triage/intake"
	"legal-triage-be/pkg/triage/respond"
	"legal-triage-be/pkg/triage/retrieve"
	"legal-triage-be/pkg/triage/safety"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	TriageController controller.ITriageController

	// Background Services (Exposed for main.go to run)
	AuditConsumerService service.IAuditConsumerService

	// Infrastructure handles for shutdown
	NatsPublisher *pktNats.Publisher
	SysLogger     logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("bootstrap", "Failed to connect to NATS publisher, audit forwarding disabled", map[string]interface{}{
			"error": err.Error(),
			"url":   cfg.App.NatsURL,
		})
	}

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	sysLogger.Info("bootstrap", "Embedding provider initialized", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"model":    cfg.Ai.EmbeddingModel,
	})

	modelName := cfg.Ai.OllamaModel
	if cfg.Ai.Provider == "gemini" {
		modelName = cfg.Ai.GeminiModel
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		modelName,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	sysLogger.Info("bootstrap", "LLM provider initialized", map[string]interface{}{
		"provider": cfg.Ai.Provider,
		"model":    modelName,
	})

	// In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 4. Triage Pipeline
	pipelineLogger := initPipelineLogger()
	searcher := retrieve.NewPgVectorSearcher(func() unitofwork.UnitOfWork {
		return unitofwork.NewUnitOfWork(db)
	}, embeddingProvider)

	ruleEngine, err := safety.NewRuleEngine(safety.DefaultRules)
	if err != nil {
		log.Fatalf("[FATAL] Failed to compile safety rules: %v", err)
	}

	pipeline := executor.NewExecutor(
		intake.NewProcessor(cfg.Triage.MaxContextMessages),
		classify.NewClassifier(llmProvider, pipelineLogger),
		clarify.NewGenerator(llmProvider, pipelineLogger),
		retrieve.NewRetriever(searcher, cfg.Triage.RetrievalK, cfg.Triage.ScoreThreshold, pipelineLogger),
		respond.NewGenerator(llmProvider, pipelineLogger),
		safety.NewValidator(ruleEngine, llmProvider, pipelineLogger),
		sessionRepo,
		executor.Config{
			ConfidenceThreshold:   cfg.Triage.ConfidenceThreshold,
			MaxClarificationLoops: cfg.Triage.MaxClarificationLoops,
			LLMTimeout:            time.Duration(cfg.Triage.LLMTimeoutSeconds) * time.Second,
			SearchTimeout:         time.Duration(cfg.Triage.SearchTimeoutSeconds) * time.Second,
		},
		pipelineLogger,
	)

	historyLoader := history.NewLoader(func() unitofwork.UnitOfWork {
		return unitofwork.NewUnitOfWork(db)
	}, cfg.Triage.MaxContextMessages)

	// 5. Audit Pipeline: executor -> watermill -> persister -> NATS
	publisherService := service.NewPublisherService(pubSub, cfg.App.AuditTopic)
	auditRecorder := audit.NewRecorder(publisherService, pipelineLogger)
	auditLogger := logger.NewIsolatedLogger("logs/audit.log")
	auditConsumerService := service.NewAuditConsumerService(
		pubSub,
		cfg.App.AuditTopic,
		uowFactory,
		natsPub,
		auditLogger,
	)

	// 6. Services
	triageService := service.NewTriageService(
		uowFactory,
		sessionRepo,
		pipeline,
		historyLoader,
		auditRecorder,
		pipelineLogger,
	)

	return &Container{
		TriageController:     controller.NewTriageController(triageService),
		AuditConsumerService: auditConsumerService,
		NatsPublisher:        natsPub,
		SysLogger:            sysLogger,
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_triage.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[TRIAGE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
