package safety

import (
	"fmt"
	"regexp"
)

// Violation is one guardrail hit found in a piece of text.
type Violation struct {
	Category    string   `json:"category"`
	Pattern     string   `json:"pattern"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Matches     []string `json:"matches"`
}

// RuleEngine is the deterministic tier of the safety validator.
type RuleEngine struct {
	rules    []Rule
	compiled []*regexp.Regexp
}

// NewRuleEngine compiles the rule table once at initialization.
func NewRuleEngine(rules []Rule) (*RuleEngine, error) {
	compiled := make([]*regexp.Regexp, len(rules))
	for i, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", rule.Pattern, err)
		}
		compiled[i] = re
	}
	return &RuleEngine{
		rules:    rules,
		compiled: compiled,
	}, nil
}

// Check scans text against every rule and returns all violations found.
func (e *RuleEngine) Check(text string) []Violation {
	var violations []Violation

	for i, re := range e.compiled {
		matches := re.FindAllString(text, 3) // cap matches per rule
		if len(matches) == 0 {
			continue
		}
		violations = append(violations, Violation{
			Category:    e.rules[i].Category,
			Pattern:     e.rules[i].Pattern,
			Description: e.rules[i].Description,
			Severity:    e.rules[i].Severity,
			Matches:     matches,
		})
	}

	return violations
}

// IsClean is a quick boolean check.
func (e *RuleEngine) IsClean(text string) bool {
	for _, re := range e.compiled {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}
