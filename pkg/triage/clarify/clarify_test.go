package clarify

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/state"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func newGenerator(provider *fakeLLM) *Generator {
	return NewGenerator(provider, log.New(io.Discard, "", 0))
}

func classification() *state.Classification {
	return &state.Classification{Domain: "Consumer Law", SubDomain: "Defective Product", Confidence: 0.4}
}

func TestNextQuestionUsesTemplateFirst(t *testing.T) {
	provider := &fakeLLM{response: "should not be called"}
	g := newGenerator(provider)

	q := g.NextQuestion(context.Background(), []string{"date of incident"}, classification(), "my phone broke", nil)

	if q.Source != "template" {
		t.Errorf("source = %q, want template", q.Source)
	}
	if q.Text != "When did this incident occur (approximate date or time period)?" {
		t.Errorf("unexpected question: %q", q.Text)
	}
	if provider.calls != 0 {
		t.Error("template match should not hit the model")
	}
}

// Persisted clarifications are recovered from history by their trailing "?",
// so every built-in template has to end with one.
func TestTemplatesEndWithQuestionMark(t *testing.T) {
	for _, tmpl := range templates {
		if !strings.HasSuffix(tmpl.Question, "?") {
			t.Errorf("template %q does not end with a question mark: %q", tmpl.Key, tmpl.Question)
		}
	}
}

func TestNextQuestionHonorsMissingFieldOrder(t *testing.T) {
	g := newGenerator(&fakeLLM{})

	q := g.NextQuestion(context.Background(), []string{"amount involved", "date of incident"}, classification(), "input", nil)

	if q.Field != "amount involved" {
		t.Errorf("field = %q, want first missing field", q.Field)
	}
}

func TestNextQuestionSkipsAskedQuestions(t *testing.T) {
	g := newGenerator(&fakeLLM{})

	dateQuestion := "When did this incident occur (approximate date or time period)?"
	q := g.NextQuestion(context.Background(),
		[]string{"date of incident", "location of incident"},
		classification(), "input",
		[]string{dateQuestion},
	)

	if q.Text == dateQuestion {
		t.Error("already-asked question was repeated")
	}
	if q.Text != "In which city and state did this happen?" {
		t.Errorf("unexpected question: %q", q.Text)
	}
}

func TestNextQuestionFallsBackToModel(t *testing.T) {
	provider := &fakeLLM{response: "What exactly did the seller promise in writing?"}
	g := newGenerator(provider)

	q := g.NextQuestion(context.Background(), []string{"seller promise details"}, classification(), "input", nil)

	if q.Source != "llm" {
		t.Errorf("source = %q, want llm", q.Source)
	}
	if q.Text != "What exactly did the seller promise in writing?" {
		t.Errorf("unexpected question: %q", q.Text)
	}
}

func TestNextQuestionStripsLeadingBullets(t *testing.T) {
	provider := &fakeLLM{response: "1. What exactly happened after you complained?"}
	g := newGenerator(provider)

	q := g.NextQuestion(context.Background(), []string{"complaint outcome"}, classification(), "input", nil)

	if q.Text != "What exactly happened after you complained?" {
		t.Errorf("unexpected question: %q", q.Text)
	}
}

func TestNextQuestionGenericFallbackOnModelError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("timeout")}
	g := newGenerator(provider)

	q := g.NextQuestion(context.Background(), []string{"unusual field"}, classification(), "input", nil)

	if q.Source != "fallback" {
		t.Errorf("source = %q, want fallback", q.Source)
	}
	if q.Text != GenericFallbackQuestion {
		t.Errorf("unexpected question: %q", q.Text)
	}
}
