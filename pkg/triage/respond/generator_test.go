package respond

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/retrieve"
	"legal-triage-be/pkg/triage/state"
)

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
	}
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func consumerClassification() state.Classification {
	return state.Classification{Domain: "Consumer Law", SubDomain: "Defective Product", Confidence: 0.85}
}

func TestGenerateAppendsDisclaimer(t *testing.T) {
	g := NewGenerator(&fakeLLM{reply: "You can file a complaint with the consumer forum."}, discardLogger())

	reply := g.Generate(context.Background(), "my phone is defective", consumerClassification(), nil, nil)

	if !strings.Contains(reply.Text, Disclaimer) {
		t.Errorf("response missing disclaimer")
	}
	if reply.Fallback {
		t.Errorf("successful generation should not be marked fallback")
	}
}

func TestGenerateModelFailureFallsBack(t *testing.T) {
	g := NewGenerator(&fakeLLM{err: errors.New("model unavailable")}, discardLogger())

	reply := g.Generate(context.Background(), "my phone is defective", consumerClassification(), nil, nil)

	if !reply.Fallback {
		t.Fatalf("expected fallback reply on model failure")
	}
	if !strings.Contains(reply.Text, "15100") {
		t.Errorf("fallback missing legal aid helpline")
	}
	if !strings.Contains(reply.Text, Disclaimer) {
		t.Errorf("fallback missing disclaimer")
	}
	if !strings.Contains(strings.ToLower(reply.Text), "consumer law") {
		t.Errorf("fallback should mention the classified domain: %q", reply.Text)
	}
}

func TestGenerateEmptyModelOutputFallsBack(t *testing.T) {
	g := NewGenerator(&fakeLLM{reply: "   \n"}, discardLogger())

	reply := g.Generate(context.Background(), "query", consumerClassification(), nil, nil)
	if !reply.Fallback {
		t.Errorf("expected fallback on empty model output")
	}
}

func TestPromptIncludesTopDocumentsTruncated(t *testing.T) {
	long := strings.Repeat("x", 1500)
	docs := []retrieve.Document{
		{Citation: "Consumer Protection Act, 2019, Section 35", Content: long},
		{Citation: "Doc Two", Content: "second"},
		{Citation: "Doc Three", Content: "third"},
		{Citation: "Doc Four", Content: "fourth should be excluded"},
	}
	fake := &fakeLLM{reply: "ok"}
	g := NewGenerator(fake, discardLogger())

	g.Generate(context.Background(), "query", consumerClassification(), docs, nil)

	if !strings.Contains(fake.lastPrompt, "Consumer Protection Act, 2019, Section 35") {
		t.Errorf("prompt missing first citation")
	}
	if strings.Contains(fake.lastPrompt, "fourth should be excluded") {
		t.Errorf("prompt should only include top 3 documents")
	}
	if strings.Contains(fake.lastPrompt, long) {
		t.Errorf("document content not truncated")
	}
	if !strings.Contains(fake.lastPrompt, strings.Repeat("x", 1000)+"...") {
		t.Errorf("expected 1000-char truncation with ellipsis")
	}
}

// Document excerpts in Devanagari must be cut on a rune boundary.
func TestPromptTruncatesDocumentsOnRuneBoundary(t *testing.T) {
	docs := []retrieve.Document{
		{Citation: "Doc One", Content: strings.Repeat("उपभोक्ता", 200)},
	}
	fake := &fakeLLM{reply: "ok"}
	g := NewGenerator(fake, discardLogger())

	g.Generate(context.Background(), "query", consumerClassification(), docs, nil)

	if !utf8.ValidString(fake.lastPrompt) {
		t.Error("prompt contains a split multi-byte rune")
	}
}

func TestPromptNoDocumentsPlaceholder(t *testing.T) {
	fake := &fakeLLM{reply: "ok"}
	g := NewGenerator(fake, discardLogger())

	g.Generate(context.Background(), "query", consumerClassification(), nil, nil)

	if !strings.Contains(fake.lastPrompt, "No specific legal documents found") {
		t.Errorf("prompt missing empty-context placeholder")
	}
}

func TestPromptHistoryWindow(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "oldest message dropped"},
		{Role: "assistant", Content: "q1"},
		{Role: "user", Content: "a1"},
		{Role: "assistant", Content: "q2"},
		{Role: "user", Content: "a2"},
		{Role: "assistant", Content: "q3"},
	}
	fake := &fakeLLM{reply: "ok"}
	g := NewGenerator(fake, discardLogger())

	g.Generate(context.Background(), "query", consumerClassification(), nil, history)

	if strings.Contains(fake.lastPrompt, "oldest message dropped") {
		t.Errorf("history window should keep only the last 5 messages")
	}
	if !strings.Contains(fake.lastPrompt, "assistant: q1") {
		t.Errorf("recent history missing from prompt")
	}
}

func TestExtractSourcesDeduplicates(t *testing.T) {
	docs := []retrieve.Document{
		{Citation: "Act A, Section 1", SourceURL: "https://example.org/a"},
		{Citation: "Act A, Section 1"},
		{Citation: "Act B, Section 2"},
	}

	sources := extractSources(docs)
	if len(sources) != 2 {
		t.Fatalf("expected 2 deduplicated sources, got %d", len(sources))
	}
	if sources[0].SourceURL != "https://example.org/a" {
		t.Errorf("first occurrence should win: %+v", sources[0])
	}
}

func TestEnsureDisclaimerIdempotent(t *testing.T) {
	once := EnsureDisclaimer("some guidance")
	twice := EnsureDisclaimer(once)
	if once != twice {
		t.Errorf("disclaimer appended twice")
	}
	if strings.Count(twice, "**Important Disclaimer**") != 1 {
		t.Errorf("expected exactly one disclaimer block")
	}
}
