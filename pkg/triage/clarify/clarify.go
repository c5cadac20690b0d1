package clarify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/state"
)

// GenericFallbackQuestion is returned when neither templates nor the model
// can produce a question.
const GenericFallbackQuestion = "Could you please provide more specific details about your situation?"

// questionTemplate maps a missing-field keyword to a ready-made question.
type questionTemplate struct {
	Key      string
	Question string
}

// templates are checked in missing-field order; the first unasked match wins.
// Every template ends with "?" so persisted clarifications can be recovered
// from history by that suffix.
var templates = []questionTemplate{
	{"date", "When did this incident occur (approximate date or time period)?"},
	{"location", "In which city and state did this happen?"},
	{"amount", "What is the approximate monetary value or amount involved?"},
	{"party", "Who is the other party involved (company name, person's relation to you)?"},
	{"document", "Do you have any documents related to this issue, such as receipts, contracts, or agreements?"},
	{"action_taken", "Have you already taken any steps to resolve this, such as complaining to the company or filing a police report?"},
	{"employment", "Is this related to your employment? If yes, are you still working there?"},
	{"relationship", "What is your relationship with the other party (employer, seller, landlord, family member)?"},
	{"purchase", "How did you make this purchase (online, retail store, or from an individual)?"},
	{"duration", "How long has this issue been ongoing?"},
}

// Question is one clarifying question plus its provenance.
type Question struct {
	Text   string `json:"question"`
	Field  string `json:"field"`
	Source string `json:"source"` // template | llm | fallback
}

// Generator produces the next clarifying question, template-first with a
// model fallback.
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

// NextQuestion picks one question for the most important missing field,
// never repeating a previously asked question. It never fails: model errors
// degrade to the generic fallback question.
func (g *Generator) NextQuestion(
	ctx context.Context,
	missingFields []string,
	classification *state.Classification,
	userInput string,
	askedQuestions []string,
) *Question {
	asked := make(map[string]bool, len(askedQuestions))
	for _, q := range askedQuestions {
		asked[q] = true
	}

	// Template pass, in missing-field order.
	for _, field := range missingFields {
		fieldLower := strings.ToLower(field)
		for _, tmpl := range templates {
			if strings.Contains(fieldLower, tmpl.Key) && !asked[tmpl.Question] {
				return &Question{
					Text:   tmpl.Question,
					Field:  field,
					Source: "template",
				}
			}
		}
	}

	// Model fallback.
	question, err := g.generateModelQuestion(ctx, missingFields, classification, userInput, askedQuestions)
	if err != nil {
		g.logger.Printf("[ERROR] Clarification generation failed: %v", err)
		return &Question{
			Text:   GenericFallbackQuestion,
			Field:  "general",
			Source: "fallback",
		}
	}

	field := "general"
	if len(missingFields) > 0 {
		field = missingFields[0]
	}
	return &Question{
		Text:   question,
		Field:  field,
		Source: "llm",
	}
}

const clarificationSystemPrompt = `You are a legal aid assistant gathering information to help classify a legal issue.

Your task is to ask ONE clear, specific question to gather missing information.

Rules:
1. Ask only ONE question at a time
2. Be specific, not vague (ask for dates, amounts, locations, names of parties)
3. Use simple language that non-lawyers understand
4. Focus on facts, not opinions
5. Be polite and professional
6. Never ask for sensitive information like Aadhaar numbers or passwords

Good question examples:
- "When did this incident occur? (approximate date or month)"
- "What was the approximate amount involved?"
- "In which city/state did this happen?"
- "Was this a product you bought online or from a physical store?"

Bad question examples:
- "Can you tell me more?" (too vague)
- "What are the legal implications?" (user doesn't know)
- "What's your Aadhaar number?" (sensitive)`

func (g *Generator) generateModelQuestion(
	ctx context.Context,
	missingFields []string,
	classification *state.Classification,
	userInput string,
	askedQuestions []string,
) (string, error) {
	askedText := "None"
	if len(askedQuestions) > 0 {
		askedText = strings.Join(askedQuestions, "\n")
	}

	domain := state.Classification{Domain: "Unknown", SubDomain: "Unknown"}
	if classification != nil {
		domain = *classification
	}

	userPrompt := fmt.Sprintf(`Missing information needed: %s

Current classification:
- Domain: %s
- Sub-domain: %s
- Confidence: %.2f

User's original message:
%s

Questions already asked:
%s

Generate ONE specific question to gather the most important missing information:`,
		strings.Join(missingFields, ", "),
		domain.Domain,
		domain.SubDomain,
		domain.Confidence,
		userInput,
		askedText,
	)

	raw, err := g.llmProvider.Chat(ctx, []llm.Message{
		{Role: "system", Content: clarificationSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return "", err
	}

	question := strings.TrimSpace(raw)
	question = strings.TrimLeft(question, "0123456789.-• ")
	if question == "" {
		return "", fmt.Errorf("model returned empty question")
	}

	return question, nil
}
