package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"legal-triage-be/pkg/llm"
	"legal-triage-be/pkg/triage/respond"
)

// CheckType records which tier decided the validation outcome.
const (
	CheckRuleBased  = "rule_based"
	CheckModelBased = "model_based"
	CheckPassed     = "passed"
	CheckFailClosed = "fail_closed"
)

// Result is the outcome of validating one response.
type Result struct {
	Valid      bool        `json:"valid"`
	Sanitized  string      `json:"sanitized_response"`
	Violations []Violation `json:"violations"`
	Severity   Severity    `json:"severity"`
	CheckType  string      `json:"check_type"`
}

// Validator runs the two-tier safety check: deterministic rules first,
// then a model-based review. A failure of the model tier substitutes the
// generic safe response instead of passing unchecked text through.
type Validator struct {
	engine      *RuleEngine
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewValidator(engine *RuleEngine, llmProvider llm.LLMProvider, logger *log.Logger) *Validator {
	return &Validator{
		engine:      engine,
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Validate checks response text and returns the text that may be shown to
// the user. It never returns an error; every failure maps to a safe result.
func (v *Validator) Validate(ctx context.Context, response string) *Result {
	// Tier 1: deterministic rules. Any hit sanitizes immediately and skips
	// the model tier.
	violations := v.engine.Check(response)
	if len(violations) > 0 {
		v.logger.Printf("[SAFETY] Rule engine found %d violations, sanitizing", len(violations))
		return &Result{
			Valid:      false,
			Sanitized:  Sanitize(response),
			Violations: violations,
			Severity:   maxSeverity(violations),
			CheckType:  CheckRuleBased,
		}
	}

	// Tier 2: model review.
	modelResult, err := v.modelCheck(ctx, response)
	if err != nil {
		// Fail closed: the unreviewed text is withheld in favor of the
		// generic safe response.
		v.logger.Printf("[SAFETY] Model check failed (%v), substituting safe response", err)
		return &Result{
			Valid:     false,
			Sanitized: respond.GenericSafeResponse,
			Severity:  SeverityHigh,
			CheckType: CheckFailClosed,
		}
	}

	if !modelResult.Valid {
		v.logger.Printf("[SAFETY] Model check flagged response: %v", modelResult.Violations)
		sanitized := Sanitize(response)
		return &Result{
			Valid:      false,
			Sanitized:  sanitized,
			Violations: toViolations(modelResult.Violations, modelResult.Severity),
			Severity:   Severity(modelResult.Severity),
			CheckType:  CheckModelBased,
		}
	}

	return &Result{
		Valid:     true,
		Sanitized: response,
		CheckType: CheckPassed,
	}
}

type modelCheckResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
	Severity   string   `json:"severity"`
}

func (v *Validator) modelCheck(ctx context.Context, response string) (*modelCheckResult, error) {
	prompt := fmt.Sprintf(`Analyze this legal aid response for safety violations.

Check for:
1. Legal advice (telling user what they SHOULD do, not what they CAN do)
2. Outcome predictions (claiming user will win/lose)
3. Specific lawyer/advocate recommendations with contact info
4. Coercive or manipulative language
5. Medical, financial, or personal advice outside legal scope
6. Incorrect or potentially harmful legal information

Response to check:
%s

Respond in JSON:
{
    "valid": boolean,
    "violations": ["list of specific violations found"],
    "severity": "low/medium/high"
}`, response)

	raw, err := v.llmProvider.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a safety validator for a legal aid system."},
		{Role: "user", Content: prompt},
	}, llm.WithTemperature(0.0))
	if err != nil {
		return nil, err
	}

	// A verdict that cannot be parsed counts as no verdict at all, the same
	// as a failed call.
	jsonContent := extractJSON(stripFences(raw))
	if jsonContent == "" {
		return nil, fmt.Errorf("safety model returned no parseable JSON")
	}

	var result modelCheckResult
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, fmt.Errorf("safety verdict parse failed: %w", err)
	}

	if result.Severity == "" {
		result.Severity = string(SeverityLow)
	}
	return &result, nil
}

func toViolations(messages []string, severity string) []Violation {
	out := make([]Violation, 0, len(messages))
	for _, msg := range messages {
		out = append(out, Violation{
			Category:    "model_review",
			Description: msg,
			Severity:    Severity(severity),
		})
	}
	return out
}

var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

func maxSeverity(violations []Violation) Severity {
	max := SeverityLow
	for _, v := range violations {
		if severityRank[v.Severity] > severityRank[max] {
			max = v.Severity
		}
	}
	return max
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
