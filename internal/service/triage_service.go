package service

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"legal-triage-be/internal/constant"
	"legal-triage-be/internal/dto"
	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/repository/memory"
	"legal-triage-be/internal/repository/specification"
	"legal-triage-be/internal/repository/unitofwork"
	"legal-triage-be/pkg/store"
	"legal-triage-be/pkg/triage/audit"
	"legal-triage-be/pkg/triage/executor"
	"legal-triage-be/pkg/triage/history"

	"github.com/google/uuid"
)

const sessionGreeting = "Hello, I can help you understand legal procedures in India. Please describe your issue."

// ITriageService defines the triage conversation service interface
type ITriageService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
	GetAuditTrail(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetAuditTrailResponse, error)
}

// triageService coordinates the pipeline with persistence and auditing
type triageService struct {
	uowFactory    unitofwork.RepositoryFactory
	sessionRepo   *memory.SessionRepository
	pipeline      *executor.Executor
	historyLoader *history.Loader
	auditRecorder *audit.Recorder
	llmLogger     *log.Logger
}

func NewTriageService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	pipeline *executor.Executor,
	historyLoader *history.Loader,
	auditRecorder *audit.Recorder,
	llmLogger *log.Logger,
) ITriageService {
	return &triageService{
		uowFactory:    uowFactory,
		sessionRepo:   sessionRepo,
		pipeline:      pipeline,
		historyLoader: historyLoader,
		auditRecorder: auditRecorder,
		llmLogger:     llmLogger,
	}
}

// CreateSession starts a new triage conversation with a greeting turn.
func (ts *triageService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Unnamed session",
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          sessionGreeting,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

// GetAllSessions retrieves all triage sessions for a user.
func (ts *triageService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			Domain:    s.Domain,
			SubDomain: s.SubDomain,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves the turns of a session, oldest first.
func (ts *triageService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	if _, err := ts.verifySession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:              msg.Id,
			Role:            msg.Role,
			Chat:            msg.Chat,
			Stage:           msg.Stage,
			IsClarification: msg.IsClarification,
			CreatedAt:       msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendChat runs one user turn through the pipeline and persists both sides
// of the exchange.
func (ts *triageService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := ts.verifySession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	// Rebuild in-memory state after a restart so the clarification budget
	// survives process boundaries.
	if _, ok := ts.sessionRepo.Get(chatSession.Id.String()); !ok {
		ts.rehydrateSession(ctx, chatSession, userId)
	}

	llmHistory, err := ts.historyLoader.LoadConversationHistory(ctx, chatSession.Id)
	if err != nil {
		return nil, err
	}

	existingCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: chatSession.Id},
		specification.NotDeleted{},
	)
	if err != nil {
		return nil, err
	}

	result := ts.pipeline.Execute(ctx, executor.Request{
		SessionID: chatSession.Id.String(),
		UserID:    userId.String(),
		Input:     request.Chat,
		History:   llmHistory,
	})

	now := time.Now()
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          request.Chat,
		Role:          constant.ChatMessageRoleUser,
		Stage:         string(result.FinalStage),
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}
	replyMessage := entity.ChatMessage{
		Id:              uuid.New(),
		Chat:            result.Reply,
		Role:            constant.ChatMessageRoleAssistant,
		Stage:           string(result.FinalStage),
		IsClarification: result.IsClarification,
		ChatSessionId:   chatSession.Id,
		CreatedAt:       now.Add(1 * time.Millisecond),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &replyMessage); err != nil {
		return nil, err
	}

	// Title from the first user turn; greeting is the only prior message.
	sessionChanged := false
	if existingCount <= 1 {
		chatSession.Title = sessionTitleFrom(request.Chat)
		sessionChanged = true
	}
	if result.Classification != nil && result.Classification.Domain != chatSession.Domain {
		chatSession.Domain = result.Classification.Domain
		chatSession.SubDomain = result.Classification.SubDomain
		sessionChanged = true
	}
	if sessionChanged {
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	ts.auditRecorder.Record(ctx, chatSession.Id.String(), userId.String(),
		result.Outcome, result.FinalStage, result.Confidence, result.Classification, result.Trace)

	resp := &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Outcome:          string(result.Outcome),
		IsClarification:  result.IsClarification,
		Confidence:       result.Confidence,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Chat:      userMessage.Chat,
			Role:      userMessage.Role,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        replyMessage.Id,
			Chat:      replyMessage.Chat,
			Role:      replyMessage.Role,
			CreatedAt: replyMessage.CreatedAt,
		},
	}
	if result.Classification != nil {
		resp.Domain = result.Classification.Domain
		resp.SubDomain = result.Classification.SubDomain
	}
	for _, src := range result.Sources {
		resp.Sources = append(resp.Sources, dto.SourceDTO{
			Citation:  src.Citation,
			SourceURL: src.SourceURL,
		})
	}

	return resp, nil
}

// DeleteSession removes a triage session and its messages.
func (ts *triageService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	if _, err := ts.verifySession(ctx, uow, userId, request.ChatSessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}

	ts.sessionRepo.Delete(request.ChatSessionId.String())

	return uow.Commit()
}

// GetAuditTrail returns the persisted pipeline traces for a session.
func (ts *triageService) GetAuditTrail(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetAuditTrailResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	if _, err := ts.verifySession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	records, err := uow.AuditRecordRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetAuditTrailResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, &dto.GetAuditTrailResponse{
			Id:         r.Id,
			Domain:     r.Domain,
			SubDomain:  r.SubDomain,
			Confidence: r.Confidence,
			FinalStage: r.FinalStage,
			Outcome:    r.Outcome,
			Trace:      r.Trace,
			CreatedAt:  r.CreatedAt,
		})
	}

	return resp, nil
}

func (ts *triageService) verifySession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}
	return sess, nil
}

func (ts *triageService) rehydrateSession(ctx context.Context, chatSession *entity.ChatSession, userId uuid.UUID) {
	asked, err := ts.historyLoader.AskedQuestions(ctx, chatSession.Id)
	if err != nil {
		ts.llmLogger.Printf("[WARN] Failed to rehydrate asked questions: %v", err)
	}
	count, err := ts.historyLoader.ClarificationCount(ctx, chatSession.Id)
	if err != nil {
		ts.llmLogger.Printf("[WARN] Failed to rehydrate clarification count: %v", err)
	}

	ts.sessionRepo.Save(&store.Session{
		ID:                 chatSession.Id.String(),
		UserID:             userId.String(),
		State:              store.StateGathering,
		Domain:             chatSession.Domain,
		SubDomain:          chatSession.SubDomain,
		ClarificationCount: count,
		AskedQuestions:     asked,
	})
}

func sessionTitleFrom(chat string) string {
	const maxTitleLen = 50
	if len(chat) <= maxTitleLen {
		return chat
	}
	// Back up to a rune boundary so Devanagari input is not cut mid-rune.
	cut := maxTitleLen
	for cut > 0 && !utf8.RuneStart(chat[cut]) {
		cut--
	}
	return chat[:cut] + "..."
}
