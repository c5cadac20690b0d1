package safety

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/respond"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func mustEngine(t *testing.T) *RuleEngine {
	t.Helper()
	engine, err := NewRuleEngine(DefaultRules)
	if err != nil {
		t.Fatalf("NewRuleEngine: %v", err)
	}
	return engine
}

func TestRuleEngineCheck(t *testing.T) {
	engine := mustEngine(t)

	tests := []struct {
		name         string
		text         string
		wantCategory string
		wantClean    bool
	}{
		{name: "clean procedural text", text: "You can file a complaint at the district consumer forum.", wantClean: true},
		{name: "directive advice", text: "You should definitely sue them.", wantCategory: CategoryLegalAdvice},
		{name: "outcome prediction", text: "You will win this case easily.", wantCategory: CategoryOutcomePrediction},
		{name: "certainty claim", text: "This is a guaranteed win for you.", wantCategory: CategoryOutcomePrediction},
		{name: "case assessment", text: "You have a strong case here.", wantCategory: CategoryOutcomePrediction},
		{name: "specific lawyer", text: "Contact my lawyer for help.", wantCategory: CategorySpecificLawyer},
		{name: "email address", text: "Write to advocate@lawfirm.example.com today.", wantCategory: CategorySpecificLawyer},
		{name: "sensitive data request", text: "Please share your Aadhaar number with me.", wantCategory: CategoryPersonalInfo},
		{name: "coercion", text: "You have no choice but to settle.", wantCategory: CategoryCoerciveLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := engine.Check(tt.text)
			if tt.wantClean {
				if len(violations) != 0 {
					t.Fatalf("expected clean, got %v", violations)
				}
				return
			}
			if len(violations) == 0 {
				t.Fatal("expected violation, got none")
			}
			found := false
			for _, v := range violations {
				if v.Category == tt.wantCategory {
					found = true
				}
			}
			if !found {
				t.Errorf("expected category %q in %v", tt.wantCategory, violations)
			}
		})
	}
}

func TestSanitizeReplacesAndRedacts(t *testing.T) {
	engine := mustEngine(t)

	text := "You will win. Call my office, contact: +919876543210 or mail advocate@firm.example.in."
	sanitized := Sanitize(text)

	if strings.Contains(sanitized, "you will win") || strings.Contains(sanitized, "You will win") {
		t.Error("prediction phrase survived sanitization")
	}
	if strings.Contains(sanitized, "+919876543210") {
		t.Error("phone number survived sanitization")
	}
	if strings.Contains(sanitized, "advocate@firm.example.in") {
		t.Error("email survived sanitization")
	}
	if !strings.Contains(sanitized, respond.Disclaimer) {
		t.Error("disclaimer missing after sanitization")
	}
	_ = engine
}

// Every guardrail category has to be rewritten or redacted, never echoed
// back with the flagged phrasing intact.
func TestSanitizeClearsEveryRulePattern(t *testing.T) {
	engine := mustEngine(t)

	texts := []string{
		"You should definitely sue them.",
		"You must file a case in the consumer court immediately.",
		"I advise you should settle quickly.",
		"You will win this case.",
		"That is a guaranteed outcome.",
		"This is a guaranteed win.",
		"The judge will certainly agree with you.",
		"You have a strong case against the seller.",
		"Your chances of winning are high.",
		"Contact my lawyer for help.",
		"Hire a specific advocate from my panel.",
		"Stop taking your medication before the hearing.",
		"Invest your savings into the settlement fund.",
		"Please share your aadhaar number with me.",
		"You have no other option but to go to court.",
		"You must act immediately or the case is lost.",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			if len(engine.Check(text)) == 0 {
				t.Fatalf("fixture text does not trip the rule engine: %q", text)
			}
			sanitized := Sanitize(text)
			if violations := engine.Check(sanitized); len(violations) != 0 {
				t.Errorf("sanitized text still has violations %v: %q", violations, sanitized)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	engine := mustEngine(t)

	text := "You should definitely sue. This is a guaranteed win."
	once := Sanitize(text)
	twice := Sanitize(once)

	if once != twice {
		t.Error("sanitizing sanitized text changed it")
	}
	if violations := engine.Check(twice); len(violations) != 0 {
		t.Errorf("sanitized text still has violations: %v", violations)
	}
	if strings.Count(twice, respond.Disclaimer) != 1 {
		t.Errorf("disclaimer present %d times, want exactly 1", strings.Count(twice, respond.Disclaimer))
	}
}

func TestValidateGuaranteedWin(t *testing.T) {
	validator := NewValidator(mustEngine(t), &fakeLLM{}, testLogger())

	result := validator.Validate(context.Background(), "This is a guaranteed win for you.")

	if result.Valid {
		t.Error("expected invalid result")
	}
	if result.CheckType != CheckRuleBased {
		t.Errorf("expected rule_based check, got %s", result.CheckType)
	}
	if strings.Contains(strings.ToLower(result.Sanitized), "guaranteed") {
		t.Error("sanitized text still contains 'guaranteed'")
	}
	if strings.Count(result.Sanitized, respond.Disclaimer) != 1 {
		t.Error("disclaimer should appear exactly once")
	}
}

func TestValidateModelTierFlagsResponse(t *testing.T) {
	provider := &fakeLLM{response: `{"valid": false, "violations": ["implied advice"], "severity": "medium"}`}
	validator := NewValidator(mustEngine(t), provider, testLogger())

	result := validator.Validate(context.Background(), "Filing promptly tends to be wise in matters like this.")

	if result.Valid {
		t.Error("expected invalid result from model tier")
	}
	if result.CheckType != CheckModelBased {
		t.Errorf("expected model_based check, got %s", result.CheckType)
	}
}

func TestValidateModelFailureFailsClosed(t *testing.T) {
	provider := &fakeLLM{err: errors.New("upstream timeout")}
	validator := NewValidator(mustEngine(t), provider, testLogger())

	result := validator.Validate(context.Background(), "You can file a complaint at the district forum.")

	if result.Valid {
		t.Error("expected fail-closed result")
	}
	if result.CheckType != CheckFailClosed {
		t.Errorf("expected fail_closed check, got %s", result.CheckType)
	}
	if result.Sanitized != respond.GenericSafeResponse {
		t.Error("expected generic safe response substitution")
	}
}

// A review verdict that cannot be parsed is no verdict at all and is handled
// exactly like a failed call.
func TestValidateMalformedModelOutputFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "prose instead of JSON", response: "I could not complete the checklist, sorry."},
		{name: "broken JSON", response: `{"valid": tru}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeLLM{response: tt.response}
			validator := NewValidator(mustEngine(t), provider, testLogger())

			result := validator.Validate(context.Background(), "You can approach the consumer forum in your district.")

			if result.Valid {
				t.Error("expected fail-closed result")
			}
			if result.CheckType != CheckFailClosed {
				t.Errorf("expected fail_closed check, got %s", result.CheckType)
			}
			if result.Sanitized != respond.GenericSafeResponse {
				t.Error("expected generic safe response substitution")
			}
		})
	}
}
