package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/state"
)

// Classifier maps normalized input to a domain, sub-domain, confidence,
// and missing-fields list via the language model.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify runs the classification model call. It never fails the pipeline:
// model errors and unparsable output degrade to the Unknown classification.
func (c *Classifier) Classify(ctx context.Context, input, conversationContext string) *state.Classification {
	systemPrompt := c.buildSystemPrompt()
	userPrompt := c.buildUserPrompt(input, conversationContext)

	raw, err := c.llmProvider.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[ERROR] Classification call failed: %v", err)
		return defaultClassification()
	}

	result, err := parseClassification(raw)
	if err != nil {
		c.logger.Printf("[WARN] Classification parse failed, using default: %v", err)
		return defaultClassification()
	}

	validated := validateClassification(result)

	c.logger.Printf("[CLASSIFY] domain=%s sub=%s confidence=%.2f missing=%d",
		validated.Domain, validated.SubDomain, validated.Confidence, len(validated.MissingFields))

	return validated
}

func (c *Classifier) buildSystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are a legal issue classifier for the Indian legal system.\n\n")
	b.WriteString("Your task is to:\n")
	b.WriteString("1. Analyze the user's description\n")
	b.WriteString("2. Classify into the most appropriate legal domain\n")
	b.WriteString("3. Identify the specific sub-domain\n")
	b.WriteString("4. Assess confidence (0.0 to 1.0)\n")
	b.WriteString("5. List any missing information needed for accurate classification\n\n")
	b.WriteString("Available domains and sub-domains:\n")
	b.WriteString(FormatTaxonomy())
	b.WriteString("\nRules:\n")
	b.WriteString("- Set confidence below 0.7 if the issue is unclear\n")
	b.WriteString("- List specific missing fields like \"date of incident\", \"location\", \"amount\"\n")
	b.WriteString("- Consider Indian law context\n")
	b.WriteString("- If truly unclassifiable, use domain \"Unknown\"\n\n")
	b.WriteString("Respond ONLY in this JSON format:\n")
	b.WriteString("{\n")
	b.WriteString("    \"domain\": \"string\",\n")
	b.WriteString("    \"sub_domain\": \"string\",\n")
	b.WriteString("    \"confidence\": float,\n")
	b.WriteString("    \"missing_fields\": [\"field1\", \"field2\"],\n")
	b.WriteString("    \"reasoning\": \"brief explanation\"\n")
	b.WriteString("}")

	return b.String()
}

func (c *Classifier) buildUserPrompt(input, conversationContext string) string {
	if conversationContext == "" {
		conversationContext = "No previous context"
	}
	return fmt.Sprintf("User's description:\n%s\n\nPrevious context:\n%s\n\nClassify this legal issue:", input, conversationContext)
}

type rawClassification struct {
	Domain        string          `json:"domain"`
	SubDomain     string          `json:"sub_domain"`
	Confidence    float64         `json:"confidence"`
	MissingFields []string        `json:"missing_fields"`
	Reasoning     string          `json:"reasoning"`
	Facts         json.RawMessage `json:"extracted_facts"`
}

func parseClassification(content string) (*state.Classification, error) {
	jsonContent := extractJSON(stripFences(content))
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	result := &state.Classification{
		Domain:        raw.Domain,
		SubDomain:     raw.SubDomain,
		Confidence:    raw.Confidence,
		MissingFields: raw.MissingFields,
		Reasoning:     raw.Reasoning,
	}
	if result.Domain == "" {
		result.Domain = DomainUnknown
	}
	if result.SubDomain == "" {
		result.SubDomain = DomainUnknown
	}

	if len(raw.Facts) > 0 {
		var facts map[string]string
		if err := json.Unmarshal(raw.Facts, &facts); err == nil {
			result.ExtractedFacts = facts
		}
	}

	return result, nil
}

func validateClassification(result *state.Classification) *state.Classification {
	result.Domain = ResolveDomain(result.Domain)
	if result.Domain != DomainUnknown {
		result.SubDomain = ResolveSubDomain(result.Domain, result.SubDomain)
	} else {
		result.SubDomain = DomainUnknown
	}
	result.Confidence = state.ClampConfidence(result.Confidence)
	return result
}

func defaultClassification() *state.Classification {
	return &state.Classification{
		Domain:        DomainUnknown,
		SubDomain:     DomainUnknown,
		Confidence:    0.0,
		MissingFields: []string{"unable to classify - please provide more details"},
		Reasoning:     "Classification failed",
	}
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.Contains(content, "```json") {
		parts := strings.SplitN(content, "```json", 2)
		content = strings.SplitN(parts[1], "```", 2)[0]
	} else if strings.Contains(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 2 {
			content = parts[1]
		}
	}
	return strings.TrimSpace(content)
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
