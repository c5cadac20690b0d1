package executor

import (
	"context"
	"log"
	"time"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/store"
	"legal-triage-be/pkg/triage/clarify"
	"legal-triage-be/pkg/triage/classify"
	"legal-triage-be/pkg/triage/confidence"
	"legal-triage-be/pkg/triage/intake"
	"legal-triage-be/pkg/triage/respond"
	"legal-triage-be/pkg/triage/retrieve"
	"legal-triage-be/pkg/triage/safety"
	"legal-triage-be/pkg/triage/state"
)

// SessionStore keeps per-conversation triage state across invocations.
type SessionStore interface {
	Get(sessionID string) (*store.Session, bool)
	Save(session *store.Session)
}

// Config bounds the pipeline's routing and its external calls.
type Config struct {
	ConfidenceThreshold   float64
	MaxClarificationLoops int
	LLMTimeout            time.Duration
	SearchTimeout         time.Duration
}

// Request is one user turn handed to the pipeline.
type Request struct {
	SessionID string
	UserID    string
	Input     string
	History   []llm.Message
}

// Result is the terminal outcome of one pipeline invocation.
type Result struct {
	Reply              string
	Outcome            state.Outcome
	FinalStage         state.Stage
	IsClarification    bool
	Classification     *state.Classification
	Confidence         float64
	Sources            []respond.Source
	Trace              []state.TraceEntry
	ClarificationCount int
}

// Executor drives one user turn through intake, classification, routing,
// retrieval, generation, and validation.
type Executor struct {
	intake     *intake.Processor
	classifier *classify.Classifier
	clarifier  *clarify.Generator
	retriever  *retrieve.Retriever
	generator  *respond.Generator
	validator  *safety.Validator
	sessions   SessionStore
	cfg        Config
	logger     *log.Logger
}

func NewExecutor(
	intakeProcessor *intake.Processor,
	classifier *classify.Classifier,
	clarifier *clarify.Generator,
	retriever *retrieve.Retriever,
	generator *respond.Generator,
	validator *safety.Validator,
	sessions SessionStore,
	cfg Config,
	logger *log.Logger,
) *Executor {
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 15 * time.Second
	}
	if cfg.MaxClarificationLoops <= 0 {
		cfg.MaxClarificationLoops = 15
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.7
	}
	return &Executor{
		intake:     intakeProcessor,
		classifier: classifier,
		clarifier:  clarifier,
		retriever:  retriever,
		generator:  generator,
		validator:  validator,
		sessions:   sessions,
		cfg:        cfg,
		logger:     logger,
	}
}

// Execute runs one turn. It always returns a displayable result; internal
// failures degrade to clarifications, fallbacks, or the safe refusal.
func (e *Executor) Execute(ctx context.Context, req Request) *Result {
	conv := &state.Conversation{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Input:     req.Input,
	}

	session := e.loadSession(req)

	if ctx.Err() != nil {
		// The caller's deadline expired before the turn started; nothing
		// downstream can run, so report the terminal error reply.
		return e.finish(conv, session, &Result{
			Reply:      respond.ErrorResponse,
			Outcome:    state.OutcomeError,
			FinalStage: state.StageIntake,
		})
	}

	// Intake. An invalid turn gets a clarification-style reply without
	// touching the model or the clarification budget.
	started := time.Now()
	intakeResult := e.intake.Process(req.Input, req.History)
	conv.Normalized = intakeResult.Normalized
	conv.AppendTrace(state.StageIntake, started, intakeResult.Valid, map[string]interface{}{
		"valid":        intakeResult.Valid,
		"out_of_scope": intakeResult.OutOfScope,
		"is_followup":  intakeResult.IsFollowup,
	})
	if intakeResult.OutOfScope {
		e.sessions.Save(session)
		return e.finish(conv, session, &Result{
			Reply:      respond.OutOfScopeResponse,
			Outcome:    state.OutcomeRefused,
			FinalStage: state.StageIntake,
		})
	}
	if !intakeResult.Valid {
		e.sessions.Save(session)
		return e.finish(conv, session, &Result{
			Reply:           intakeResult.Error,
			Outcome:         state.OutcomeClarify,
			FinalStage:      state.StageIntake,
			IsClarification: true,
		})
	}
	session.LastQuery = intakeResult.Normalized

	// Classify. Degrades to Unknown internally, never fails.
	started = time.Now()
	classification := e.classifyWithTimeout(ctx, intakeResult.Normalized, intakeResult.Context)
	if classification.Domain == classify.DomainUnknown && session.Domain != "" {
		// carry the prior turn's classification across a vague followup
		classification.Domain = session.Domain
		classification.SubDomain = session.SubDomain
		classification.Confidence = session.Confidence
	}
	conv.Classification = classification
	conv.AppendTrace(state.StageClassify, started, classification.Domain != classify.DomainUnknown, map[string]interface{}{
		"domain":         classification.Domain,
		"sub_domain":     classification.SubDomain,
		"confidence":     classification.Confidence,
		"missing_fields": classification.MissingFields,
	})

	// Routing: ask one clarifying question while below threshold and budget.
	// The routing decision uses the raw classification confidence; the
	// missing-fields penalty only dampens the aggregate score later.
	if confidence.ShouldClarify(classification.Confidence, e.cfg.ConfidenceThreshold, session.ClarificationCount, e.cfg.MaxClarificationLoops) {
		return e.clarifyTurn(ctx, conv, session, classification, intakeResult.Normalized)
	}

	if classification.Confidence < e.cfg.ConfidenceThreshold {
		// Budget exhausted: answer with what we have rather than loop.
		e.logger.Printf("[WARN] Clarification bound reached for session %s, proceeding at confidence %.2f",
			session.ID, classification.Confidence)
		conv.AppendTrace(state.StageClarify, time.Now(), true, map[string]interface{}{
			"skipped":             true,
			"bound_reached":       true,
			"clarification_count": session.ClarificationCount,
		})
	}

	// Retrieve. Collaborator failure degrades to an empty document set.
	started = time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout)
	docs := e.retriever.Retrieve(searchCtx, intakeResult.Normalized, classification.Domain, classification.SubDomain)
	cancel()
	conv.AppendTrace(state.StageRetrieve, started, true, map[string]interface{}{
		"documents": len(docs),
	})

	contextRelevance := 0.5
	if intakeResult.IsFollowup && len(req.History) > 0 {
		contextRelevance = 1.0
	}
	// Missing facts dampen the reported confidence without changing the route.
	penalized := state.ClampConfidence(
		classification.Confidence - confidence.MissingFieldsPenalty(classification.MissingFields))
	overall := confidence.Score(
		penalized,
		confidence.AggregateDocumentScores(documentScores(docs)),
		contextRelevance,
		confidence.DefaultWeights,
	)

	// Respond. Model failure degrades to deterministic fallback guidance.
	started = time.Now()
	llmCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	reply := e.generator.Generate(llmCtx, intakeResult.Normalized, *classification, docs, req.History)
	cancel()
	conv.AppendTrace(state.StageRespond, started, !reply.Fallback, map[string]interface{}{
		"fallback": reply.Fallback,
		"sources":  len(reply.Sources),
	})

	// Validate. Nothing leaves the pipeline unchecked.
	started = time.Now()
	llmCtx, cancel = context.WithTimeout(ctx, e.cfg.LLMTimeout)
	checked := e.validator.Validate(llmCtx, reply.Text)
	cancel()
	conv.AppendTrace(state.StageValidate, started, checked.Valid, map[string]interface{}{
		"check_type":       checked.CheckType,
		"violations":       len(checked.Violations),
		"confidence_level": confidence.LevelFor(overall),
	})

	outcome := state.OutcomeAnswered
	if reply.Fallback {
		outcome = state.OutcomeFallback
	}
	if checked.CheckType == safety.CheckFailClosed {
		outcome = state.OutcomeRefused
	}

	session.State = store.StateAnswered
	session.Domain = classification.Domain
	session.SubDomain = classification.SubDomain
	session.Confidence = overall
	session.LastQuestion = ""
	e.sessions.Save(session)

	return e.finish(conv, session, &Result{
		Reply:      checked.Sanitized,
		Outcome:    outcome,
		FinalStage: state.StageValidate,
		Confidence: overall,
		Sources:    reply.Sources,
	})
}

func (e *Executor) clarifyTurn(ctx context.Context, conv *state.Conversation, session *store.Session, classification *state.Classification, input string) *Result {
	started := time.Now()
	llmCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	question := e.clarifier.NextQuestion(llmCtx, classification.MissingFields, classification, input, session.AskedQuestions)
	cancel()

	session.State = store.StateGathering
	session.Domain = classification.Domain
	session.SubDomain = classification.SubDomain
	session.Confidence = classification.Confidence
	session.ClarificationCount++
	session.AskedQuestions = append(session.AskedQuestions, question.Text)
	session.LastQuestion = question.Text
	e.sessions.Save(session)

	conv.AppendTrace(state.StageClarify, started, true, map[string]interface{}{
		"field":               question.Field,
		"source":              question.Source,
		"clarification_count": session.ClarificationCount,
	})

	return e.finish(conv, session, &Result{
		Reply:           question.Text,
		Outcome:         state.OutcomeClarify,
		FinalStage:      state.StageClarify,
		IsClarification: true,
		Confidence:      classification.Confidence,
	})
}

func (e *Executor) classifyWithTimeout(ctx context.Context, input, conversationContext string) *state.Classification {
	llmCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	defer cancel()
	return e.classifier.Classify(llmCtx, input, conversationContext)
}

func (e *Executor) loadSession(req Request) *store.Session {
	if session, ok := e.sessions.Get(req.SessionID); ok {
		return session
	}
	return &store.Session{
		ID:     req.SessionID,
		UserID: req.UserID,
		State:  store.StateGathering,
	}
}

func (e *Executor) finish(conv *state.Conversation, session *store.Session, result *Result) *Result {
	result.Classification = conv.Classification
	result.Trace = conv.Trace
	result.ClarificationCount = session.ClarificationCount
	e.logger.Printf("[TRIAGE] session=%s outcome=%s stage=%s confidence=%.2f",
		conv.SessionID, result.Outcome, result.FinalStage, result.Confidence)
	return result
}

func documentScores(docs []retrieve.Document) []float64 {
	scores := make([]float64, 0, len(docs))
	for _, doc := range docs {
		scores = append(scores, doc.Score)
	}
	return scores
}
