package safety

import (
	"regexp"

	"legal-triage-be/pkg/triage/respond"
)

var (
	phonePattern = regexp.MustCompile(`(?i)(?:phone|call|contact):\s*\+?\d{10,}`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

	compiledReplacements = func() []struct {
		Re  *regexp.Regexp
		New string
	} {
		out := make([]struct {
			Re  *regexp.Regexp
			New string
		}, len(replacements))
		for i, r := range replacements {
			out[i].Re = regexp.MustCompile("(?i)" + r.Pattern)
			out[i].New = r.New
		}
		return out
	}()

	compiledRules = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(DefaultRules))
		for i, r := range DefaultRules {
			out[i] = regexp.MustCompile("(?i)" + r.Pattern)
		}
		return out
	}()
)

// Sanitize softens advice phrasing, redacts contact details, and re-appends
// the disclaimer. Text that still matches a guardrail pattern after the
// rewrite is withheld entirely. Sanitizing already-sanitized text is a no-op.
func Sanitize(text string) string {
	sanitized := text

	for _, r := range compiledReplacements {
		sanitized = r.Re.ReplaceAllString(sanitized, r.New)
	}

	sanitized = phonePattern.ReplaceAllString(sanitized, "[Contact information removed]")
	sanitized = emailPattern.ReplaceAllString(sanitized, "[Email removed]")

	for _, re := range compiledRules {
		if re.MatchString(sanitized) {
			return respond.GenericSafeResponse
		}
	}

	return respond.EnsureDisclaimer(sanitized)
}
