package intake

import (
	"strings"
	"testing"
	"unicode/utf8"

	"legal-triage-be/pkg/llm"
)

func TestProcessValidation(t *testing.T) {
	p := NewProcessor(10)

	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   \n\t  ", wantValid: false},
		{name: "too short", input: "hi", wantValid: false},
		{name: "single word", input: "defective", wantValid: false},
		{name: "valid description", input: "I bought a phone online and it is defective", wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Process(tt.input, nil)
			if result.Valid != tt.wantValid {
				t.Errorf("Process(%q).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Error == "" {
				t.Error("invalid input should carry a message for the user")
			}
		})
	}
}

func TestProcessNormalizes(t *testing.T) {
	p := NewProcessor(10)

	result := p.Process("  my   landlord\n\nrefuses to  return the deposit ", nil)
	if !result.Valid {
		t.Fatalf("unexpected invalid: %s", result.Error)
	}
	if result.Normalized != "my landlord refuses to return the deposit" {
		t.Errorf("unexpected normalization: %q", result.Normalized)
	}
}

func TestProcessTruncatesLongInput(t *testing.T) {
	p := NewProcessor(10)

	long := strings.Repeat("a ", 4000)
	result := p.Process(long, nil)
	if len(result.Normalized) > 5000 {
		t.Errorf("normalized input exceeds cap: %d chars", len(result.Normalized))
	}
}

// Devanagari input near the cap must not be cut mid-rune.
func TestProcessTruncatesOnRuneBoundary(t *testing.T) {
	p := NewProcessor(10)

	long := strings.Repeat("मालिक ", 1000)
	result := p.Process(long, nil)

	if len(result.Normalized) > 5000 {
		t.Errorf("normalized input exceeds cap: %d bytes", len(result.Normalized))
	}
	if !utf8.ValidString(result.Normalized) {
		t.Error("truncation split a multi-byte rune")
	}
}

func TestProcessFlagsOutOfScope(t *testing.T) {
	p := NewProcessor(10)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "recipe request", input: "can you share a recipe for biryani", want: true},
		{name: "sports question", input: "who won the cricket match yesterday", want: true},
		{name: "weather question", input: "what is the weather forecast for Delhi", want: true},
		{name: "legal issue", input: "my employer has not paid my salary for two months", want: false},
		{name: "food poisoning claim", input: "I got food poisoning at a restaurant and want to complain", want: false},
		{name: "display defect claim", input: "the phone display cracked within the warranty period", want: false},
		{name: "embedded word", input: "the society misplayed the maintenance funds", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Process(tt.input, nil)
			if result.OutOfScope != tt.want {
				t.Errorf("Process(%q).OutOfScope = %v, want %v", tt.input, result.OutOfScope, tt.want)
			}
			if tt.want && result.Valid {
				t.Error("out-of-scope input must not be valid")
			}
		})
	}
}

func TestDetectFollowup(t *testing.T) {
	p := NewProcessor(10)
	history := []llm.Message{{Role: "user", Content: "I was fired without notice"}}

	followup := p.Process("what about my pending salary", history)
	if !followup.IsFollowup {
		t.Error("expected followup detection for 'what about'")
	}

	pronoun := p.Process("it happened last month", history)
	if !pronoun.IsFollowup {
		t.Error("expected followup detection for leading pronoun")
	}

	fresh := p.Process("my landlord refuses to return my deposit", history)
	if fresh.IsFollowup {
		t.Error("fresh issue should not be flagged as followup")
	}

	noHistory := p.Process("what about my pending salary", nil)
	if noHistory.IsFollowup {
		t.Error("followup requires prior history")
	}
}

func TestBuildContext(t *testing.T) {
	p := NewProcessor(2)

	history := []llm.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: strings.Repeat("x", 600)},
	}

	context := p.BuildContext(history)

	if strings.Contains(context, "first") {
		t.Error("context should only keep the most recent messages")
	}
	if !strings.Contains(context, "Assistant: second") {
		t.Error("context should be role-prefixed")
	}
	if !strings.Contains(context, "...") {
		t.Error("long messages should be truncated")
	}
	if strings.Contains(context, strings.Repeat("x", 501)) {
		t.Error("message content should be capped at 500 chars")
	}
}
