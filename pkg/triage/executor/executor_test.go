package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"legal-triage-be/internal/repository/memory"
	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/clarify"
	"legal-triage-be/pkg/triage/classify"
	"legal-triage-be/pkg/triage/intake"
	"legal-triage-be/pkg/triage/respond"
	"legal-triage-be/pkg/triage/retrieve"
	"legal-triage-be/pkg/triage/safety"
	"legal-triage-be/pkg/triage/state"
)

// scriptedLLM returns queued replies in order, repeating the last one.
type scriptedLLM struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	idx := s.calls - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return s.replies[idx], nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type fakeSearcher struct {
	docs []retrieve.Document
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int, _ string, _ float64) ([]retrieve.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.docs) > k {
		return f.docs[:k], f.err
	}
	return f.docs, f.err
}

const (
	confidentConsumerClassification = `{"domain": "Consumer Law", "sub_domain": "Defective Product", "confidence": 0.9, "missing_fields": [], "reasoning": "clear complaint"}`
	vagueClassification             = `{"domain": "Consumer Law", "sub_domain": "Defective Product", "confidence": 0.4, "missing_fields": ["date of purchase", "location"], "reasoning": "details missing"}`
	safePassVerdict                 = `{"valid": true, "violations": [], "severity": "none"}`
)

type fixture struct {
	classifierLLM *scriptedLLM
	clarifierLLM  *scriptedLLM
	responderLLM  *scriptedLLM
	validatorLLM  *scriptedLLM
	searcher      *fakeSearcher
	sessions      *memory.SessionRepository
	executor      *Executor
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	f := &fixture{
		classifierLLM: &scriptedLLM{replies: []string{confidentConsumerClassification}},
		clarifierLLM:  &scriptedLLM{},
		responderLLM:  &scriptedLLM{replies: []string{"You can file a complaint with the District Consumer Commission."}},
		validatorLLM:  &scriptedLLM{replies: []string{safePassVerdict}},
		searcher: &fakeSearcher{docs: []retrieve.Document{
			{ID: "1", Title: "Consumer Protection Act, 2019", Section: "35", Content: "complaint procedure before the district commission", Score: 0.85},
			{ID: "2", Title: "Consumer Protection Act, 2019", Section: "2", Content: "definitions of consumer and defect", Score: 0.7},
		}},
		sessions: memory.NewSessionRepository(),
	}

	ruleEngine, err := safety.NewRuleEngine(safety.DefaultRules)
	if err != nil {
		t.Fatalf("compile safety rules: %v", err)
	}

	f.executor = NewExecutor(
		intake.NewProcessor(10),
		classify.NewClassifier(f.classifierLLM, logger),
		clarify.NewGenerator(f.clarifierLLM, logger),
		retrieve.NewRetriever(f.searcher, 5, 0.5, logger),
		respond.NewGenerator(f.responderLLM, logger),
		safety.NewValidator(ruleEngine, f.validatorLLM, logger),
		f.sessions,
		cfg,
		logger,
	)
	return f
}

func defaultConfig() Config {
	return Config{
		ConfidenceThreshold:   0.7,
		MaxClarificationLoops: 15,
		LLMTimeout:            time.Second,
		SearchTimeout:         time.Second,
	}
}

// Clear, detailed complaint: classified confidently, answered in one turn
// with grounded sources and the disclaimer.
func TestExecuteAnswersConfidentComplaint(t *testing.T) {
	f := newFixture(t, defaultConfig())

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		UserID:    "u1",
		Input:     "I bought a washing machine last month in Pune and it stopped working, the seller refuses to repair it",
	})

	if result.Outcome != state.OutcomeAnswered {
		t.Fatalf("expected answered, got %s (reply: %s)", result.Outcome, result.Reply)
	}
	if result.IsClarification {
		t.Error("answer should not be flagged as clarification")
	}
	if !strings.Contains(result.Reply, "District Consumer Commission") {
		t.Errorf("reply missing generated guidance: %q", result.Reply)
	}
	if !strings.Contains(result.Reply, respond.Disclaimer) {
		t.Error("reply missing disclaimer")
	}
	if len(result.Sources) == 0 {
		t.Error("expected citation sources")
	}
	if result.Classification == nil || result.Classification.Domain != "Consumer Law" {
		t.Errorf("unexpected classification: %+v", result.Classification)
	}
	if f.clarifierLLM.calls != 0 {
		t.Error("clarifier should not run for a confident turn")
	}

	stages := tracedStages(result.Trace)
	for _, want := range []state.Stage{state.StageIntake, state.StageClassify, state.StageRetrieve, state.StageRespond, state.StageValidate} {
		if !stages[want] {
			t.Errorf("trace missing stage %s", want)
		}
	}
}

// Vague turn triggers one clarifying question; the detailed followup is
// answered. The clarification count grows by exactly one.
func TestExecuteClarifiesThenAnswers(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.classifierLLM.replies = []string{vagueClassification, confidentConsumerClassification}

	first := f.executor.Execute(context.Background(), Request{
		SessionID: "s2",
		UserID:    "u1",
		Input:     "I have a problem with something I bought",
	})

	if first.Outcome != state.OutcomeClarify {
		t.Fatalf("expected clarify, got %s", first.Outcome)
	}
	if !first.IsClarification {
		t.Error("clarifying reply not flagged")
	}
	if !strings.HasSuffix(strings.TrimSpace(first.Reply), "?") {
		t.Errorf("clarification should be a question: %q", first.Reply)
	}
	if first.ClarificationCount != 1 {
		t.Errorf("expected count 1, got %d", first.ClarificationCount)
	}

	second := f.executor.Execute(context.Background(), Request{
		SessionID: "s2",
		UserID:    "u1",
		Input:     "I bought it on 2 January in Mumbai for 30000 rupees and the seller refuses a refund",
		History: []llm.Message{
			{Role: "user", Content: "I have a problem with something I bought"},
			{Role: "assistant", Content: first.Reply},
		},
	})

	if second.Outcome != state.OutcomeAnswered {
		t.Fatalf("expected answered, got %s (reply: %s)", second.Outcome, second.Reply)
	}
	if second.ClarificationCount != 1 {
		t.Errorf("answering must not consume clarification budget, got count %d", second.ClarificationCount)
	}
}

// Repeated vague turns exhaust the loop bound, after which the pipeline
// answers with whatever it has instead of asking again.
// Routing compares the raw classification confidence against the threshold;
// missing fields alone must not force a clarifying turn.
func TestExecuteAnswersAboveThresholdDespiteMissingFields(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.classifierLLM.replies = []string{`{"domain": "Consumer Law", "sub_domain": "Defective Product", "confidence": 0.75, "missing_fields": ["date of purchase", "location of incident"], "reasoning": "confident despite gaps"}`}

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s10",
		UserID:    "u1",
		Input:     "the seller refuses to repair my defective washing machine",
	})

	if result.Outcome != state.OutcomeAnswered {
		t.Fatalf("expected answered, got %s (reply: %s)", result.Outcome, result.Reply)
	}
	if f.clarifierLLM.calls != 0 {
		t.Error("clarifier must not run when confidence meets the threshold")
	}
	if result.ClarificationCount != 0 {
		t.Errorf("expected count 0, got %d", result.ClarificationCount)
	}
	if !tracedStages(result.Trace)[state.StageRetrieve] {
		t.Error("retrieval should run for an above-threshold turn")
	}
}

func TestExecuteLoopBoundForcesProgression(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxClarificationLoops = 2
	f := newFixture(t, cfg)
	f.classifierLLM.replies = []string{vagueClassification}

	var result *Result
	for i := 0; i < 3; i++ {
		result = f.executor.Execute(context.Background(), Request{
			SessionID: "s3",
			UserID:    "u1",
			Input:     "something went wrong with my purchase",
		})
		if i < 2 && result.Outcome != state.OutcomeClarify {
			t.Fatalf("turn %d: expected clarify, got %s", i, result.Outcome)
		}
	}

	if result.Outcome == state.OutcomeClarify {
		t.Fatalf("bound reached but pipeline still clarifying")
	}
	if result.ClarificationCount != 2 {
		t.Errorf("expected count capped at 2, got %d", result.ClarificationCount)
	}

	var boundRecorded bool
	for _, entry := range result.Trace {
		if entry.Stage == state.StageClarify {
			if v, ok := entry.Detail["bound_reached"].(bool); ok && v {
				boundRecorded = true
			}
		}
	}
	if !boundRecorded {
		t.Error("trace should record the bound override")
	}
}

// Generated text with outcome promises is sanitized before it is shown.
func TestExecuteSanitizesUnsafeResponse(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.responderLLM.replies = []string{"You will win this case, it is a guaranteed win. You should definitely sue them."}

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s4",
		UserID:    "u1",
		Input:     "my builder took money and disappeared without delivering the flat",
	})

	lower := strings.ToLower(result.Reply)
	if strings.Contains(lower, "guaranteed") {
		t.Errorf("sanitizer left outcome promise in reply: %q", result.Reply)
	}
	if strings.Contains(lower, "you will win") {
		t.Errorf("sanitizer left prediction in reply: %q", result.Reply)
	}
	if !strings.Contains(result.Reply, respond.Disclaimer) {
		t.Error("sanitized reply missing disclaimer")
	}
}

// Safety model tier failure withholds the text entirely.
func TestExecuteValidatorFailureRefuses(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.validatorLLM.err = errors.New("model unavailable")

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s5",
		UserID:    "u1",
		Input:     "my employer has not paid my salary for three months",
	})

	if result.Outcome != state.OutcomeRefused {
		t.Fatalf("expected refused, got %s", result.Outcome)
	}
	if result.Reply != respond.GenericSafeResponse {
		t.Errorf("refusal should use the generic safe response")
	}
}

// Invalid input gets a clarification-style reply without touching the
// model or the clarification budget.
func TestExecuteInvalidInputSkipsModels(t *testing.T) {
	f := newFixture(t, defaultConfig())

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s6",
		UserID:    "u1",
		Input:     "hi",
	})

	if result.Outcome != state.OutcomeClarify {
		t.Fatalf("expected clarify, got %s", result.Outcome)
	}
	if !result.IsClarification {
		t.Error("invalid-input reply not flagged as clarification")
	}
	if result.ClarificationCount != 0 {
		t.Errorf("intake rejection must not consume budget, got %d", result.ClarificationCount)
	}
	if f.classifierLLM.calls != 0 || f.responderLLM.calls != 0 {
		t.Error("no model call should happen for invalid input")
	}
}

// Non-legal queries get the fixed out-of-scope reply without model calls.
func TestExecuteOutOfScopeRefused(t *testing.T) {
	f := newFixture(t, defaultConfig())

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s9",
		UserID:    "u1",
		Input:     "recommend a good movie for the weekend",
	})

	if result.Outcome != state.OutcomeRefused {
		t.Fatalf("expected refused, got %s", result.Outcome)
	}
	if result.Reply != respond.OutOfScopeResponse {
		t.Errorf("expected the fixed out-of-scope reply")
	}
	if f.classifierLLM.calls != 0 {
		t.Error("out-of-scope input should not reach the classifier")
	}
}

// A context that is already dead yields the terminal error reply without
// running any stage.
func TestExecuteCancelledContext(t *testing.T) {
	f := newFixture(t, defaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.executor.Execute(ctx, Request{
		SessionID: "s11",
		UserID:    "u1",
		Input:     "my employer has not paid my salary for three months",
	})

	if result.Outcome != state.OutcomeError {
		t.Fatalf("expected error outcome, got %s", result.Outcome)
	}
	if result.Reply != respond.ErrorResponse {
		t.Errorf("expected the terminal error reply")
	}
	if f.classifierLLM.calls != 0 || f.responderLLM.calls != 0 {
		t.Error("no model call should happen on a dead context")
	}
}

// Retrieval failure degrades to fallback guidance rather than an error.
func TestExecuteSearcherFailureFallsBack(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.searcher.err = errors.New("index down")
	f.responderLLM.err = errors.New("model down")

	result := f.executor.Execute(context.Background(), Request{
		SessionID: "s7",
		UserID:    "u1",
		Input:     "my landlord refuses to return my security deposit after I vacated",
	})

	if result.Outcome != state.OutcomeFallback {
		t.Fatalf("expected fallback, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reply, "15100") {
		t.Errorf("fallback missing legal aid helpline: %q", result.Reply)
	}
}

// Clarification count only ever grows, one per clarifying turn.
func TestClarificationCountMonotonic(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxClarificationLoops = 5
	f := newFixture(t, cfg)
	f.classifierLLM.replies = []string{vagueClassification}

	prev := 0
	for i := 0; i < 5; i++ {
		result := f.executor.Execute(context.Background(), Request{
			SessionID: "s8",
			UserID:    "u1",
			Input:     "there is an issue with my purchase",
		})
		if result.ClarificationCount < prev {
			t.Fatalf("count decreased from %d to %d", prev, result.ClarificationCount)
		}
		if result.Outcome == state.OutcomeClarify && result.ClarificationCount != prev+1 {
			t.Fatalf("clarifying turn should increment count by one, got %d after %d", result.ClarificationCount, prev)
		}
		prev = result.ClarificationCount
	}
}

func tracedStages(trace []state.TraceEntry) map[state.Stage]bool {
	out := make(map[state.Stage]bool, len(trace))
	for _, entry := range trace {
		out[entry.Stage] = true
	}
	return out
}
