package intake

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"legal-triage-be/pkg/llm"
)

const (
	maxInputLength = 5000
	minInputLength = 5
	minWordCount   = 2

	maxContextMessageChars = 500
)

// Result is the outcome of intake processing.
type Result struct {
	Valid      bool
	Normalized string
	Error      string
	OutOfScope bool
	IsFollowup bool
	Context    string
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// Processor normalizes and validates raw user input before any model call.
type Processor struct {
	maxContextMessages int
}

func NewProcessor(maxContextMessages int) *Processor {
	if maxContextMessages <= 0 {
		maxContextMessages = 10
	}
	return &Processor{maxContextMessages: maxContextMessages}
}

// Process cleans and validates input and builds the bounded context string
// from prior turns. Invalid input produces a clarification-style error
// message; classification is never attempted for it.
func (p *Processor) Process(rawInput string, history []llm.Message) *Result {
	cleaned := cleanInput(rawInput)

	if errMsg := validate(cleaned); errMsg != "" {
		return &Result{
			Valid:      false,
			Normalized: cleaned,
			Error:      errMsg,
		}
	}

	if isOutOfScope(cleaned) {
		return &Result{
			Valid:      false,
			Normalized: cleaned,
			OutOfScope: true,
		}
	}

	return &Result{
		Valid:      true,
		Normalized: cleaned,
		IsFollowup: detectFollowup(cleaned, history),
		Context:    p.BuildContext(history),
	}
}

func cleanInput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return truncate(cleaned, maxInputLength)
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

func validate(text string) string {
	if text == "" {
		return "Please provide a description of your legal issue."
	}
	if len(text) < minInputLength {
		return "Please provide more details about your situation."
	}
	if len(strings.Fields(text)) < minWordCount {
		return "Please describe your legal issue in more detail."
	}
	return ""
}

// outOfScopePatterns match as whole words only; terms that also occur in
// genuine legal fact patterns (food, restaurant, play) are deliberately
// absent so consumer claims are not refused.
var outOfScopePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(recipe|cooking)\b`),
	regexp.MustCompile(`(?i)\b(movie|film|entertainment|music)\b`),
	regexp.MustCompile(`(?i)\b(sports|cricket|football)\b`),
	regexp.MustCompile(`(?i)\b(weather|temperature|forecast)\b`),
	regexp.MustCompile(`(?i)\b(joke|funny|humor)\b`),
	regexp.MustCompile(`(?i)\b(dating|relationship advice)\b`),
}

func isOutOfScope(text string) bool {
	for _, pattern := range outOfScopePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

var followupIndicators = []string{
	"what about",
	"and also",
	"additionally",
	"moreover",
	"regarding that",
	"about that",
	"you mentioned",
	"as i said",
	"like i mentioned",
}

var leadingPronouns = map[string]bool{
	"it": true, "this": true, "that": true, "they": true, "them": true,
}

func detectFollowup(input string, history []llm.Message) bool {
	if len(history) == 0 {
		return false
	}

	lower := strings.ToLower(input)
	for _, indicator := range followupIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	words := strings.Fields(lower)
	return len(words) > 0 && leadingPronouns[words[0]]
}

// BuildContext renders the most recent turns as a role-prefixed block,
// each message truncated, oldest first.
func (p *Processor) BuildContext(history []llm.Message) string {
	if len(history) == 0 {
		return ""
	}

	recent := history
	if len(recent) > p.maxContextMessages {
		recent = recent[len(recent)-p.maxContextMessages:]
	}

	parts := make([]string, 0, len(recent))
	for _, msg := range recent {
		content := msg.Content
		if len(content) > maxContextMessageChars {
			content = truncate(content, maxContextMessageChars) + "..."
		}
		role := msg.Role
		if role == "" {
			role = "user"
		}
		role = strings.ToUpper(role[:1]) + role[1:]
		parts = append(parts, role+": "+content)
	}

	return strings.Join(parts, "\n")
}
