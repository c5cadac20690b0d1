package respond

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/retrieve"
	"legal-triage-be/pkg/triage/state"
)

const (
	maxContextDocuments = 3
	maxDocumentChars    = 1000
	maxHistoryMessages  = 5
	maxHistoryChars     = 300
)

// Source is a citation surfaced alongside the generated guidance.
type Source struct {
	Citation  string `json:"citation"`
	SourceURL string `json:"source_url,omitempty"`
}

// Reply is the generated guidance plus the sources that informed it.
type Reply struct {
	Text     string   `json:"text"`
	Sources  []Source `json:"sources"`
	Fallback bool     `json:"fallback"`
}

// Generator produces grounded procedural guidance from retrieved documents.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Generate builds the grounded prompt and calls the model. Model failure
// degrades to deterministic fallback guidance, never an error.
func (g *Generator) Generate(ctx context.Context, query string, classification state.Classification, docs []retrieve.Document, history []llm.Message) Reply {
	messages := []llm.Message{
		{Role: "system", Content: responseSystemPrompt},
		{Role: "user", Content: g.buildUserPrompt(query, classification, docs, history)},
	}

	raw, err := g.llmProvider.Chat(ctx, messages, llm.WithTemperature(0.3))
	if err != nil {
		g.logger.Printf("[ERROR] Response generation failed: %v", err)
		return Reply{
			Text:     FallbackGuidance(classification.Domain),
			Sources:  extractSources(docs),
			Fallback: true,
		}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		g.logger.Printf("[WARN] Model returned empty response, using fallback")
		return Reply{
			Text:     FallbackGuidance(classification.Domain),
			Sources:  extractSources(docs),
			Fallback: true,
		}
	}

	return Reply{
		Text:    EnsureDisclaimer(text),
		Sources: extractSources(docs),
	}
}

const responseSystemPrompt = `You are a legal information assistant helping citizens of India understand legal procedures. You provide PROCEDURAL GUIDANCE ONLY, never legal advice.

STRICT RULES:
1. Only explain procedures, processes, and general legal information
2. NEVER advise what the user "should" do - only what options exist
3. NEVER predict case outcomes or chances of success
4. NEVER recommend specific lawyers or law firms
5. Base your answer on the provided legal context when available
6. If the context doesn't cover the question, say so and give general guidance
7. Use simple language a non-lawyer can understand

RESPONSE STRUCTURE:
1. Brief acknowledgment of the situation
2. Relevant legal provisions (cite the acts/sections from context)
3. Step-by-step procedural options available
4. Required documents (if applicable)
5. Where to seek help (legal aid, helplines, portals)`

func (g *Generator) buildUserPrompt(query string, classification state.Classification, docs []retrieve.Document, history []llm.Message) string {
	var b strings.Builder

	b.WriteString("Legal Domain: ")
	b.WriteString(classification.Domain)
	if classification.SubDomain != "" {
		b.WriteString(" / ")
		b.WriteString(classification.SubDomain)
	}
	b.WriteString("\n\n")

	b.WriteString("LEGAL CONTEXT:\n")
	b.WriteString(formatDocuments(docs))
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		b.WriteString(formatHistory(history))
		b.WriteString("\n\n")
	}

	b.WriteString("USER QUESTION: ")
	b.WriteString(query)
	b.WriteString("\n\nProvide procedural guidance based on the legal context above.")

	return b.String()
}

func formatDocuments(docs []retrieve.Document) string {
	if len(docs) == 0 {
		return "No specific legal documents found. Provide general procedural guidance."
	}

	limit := len(docs)
	if limit > maxContextDocuments {
		limit = maxContextDocuments
	}

	parts := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		content := docs[i].Content
		if len(content) > maxDocumentChars {
			content = truncate(content, maxDocumentChars) + "..."
		}
		parts = append(parts, fmt.Sprintf("[Document %d: %s]\n%s", i+1, docs[i].Citation, content))
	}
	return strings.Join(parts, "\n\n")
}

func formatHistory(history []llm.Message) string {
	start := 0
	if len(history) > maxHistoryMessages {
		start = len(history) - maxHistoryMessages
	}

	var b strings.Builder
	for _, msg := range history[start:] {
		content := msg.Content
		if len(content) > maxHistoryChars {
			content = truncate(content, maxHistoryChars) + "..."
		}
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// extractSources collects citations from the retrieved set, deduplicated by
// citation string.
func extractSources(docs []retrieve.Document) []Source {
	seen := make(map[string]bool, len(docs))
	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.Citation] {
			continue
		}
		seen[doc.Citation] = true
		sources = append(sources, Source{
			Citation:  doc.Citation,
			SourceURL: doc.SourceURL,
		})
	}
	return sources
}
