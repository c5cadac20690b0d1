package safety

// Severity ranks how serious a guardrail violation is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rule categories.
const (
	CategoryLegalAdvice       = "legal_advice"
	CategoryOutcomePrediction = "outcome_prediction"
	CategorySpecificLawyer    = "specific_lawyer"
	CategoryMedicalAdvice     = "medical_advice"
	CategoryFinancialAdvice   = "financial_advice"
	CategoryPersonalInfo      = "personal_info_request"
	CategoryCoerciveLanguage  = "coercive_language"
)

// Rule is one guardrail pattern. New rules are additive data, not new code.
type Rule struct {
	Category    string
	Pattern     string
	Description string
	Severity    Severity
}

// DefaultRules is the guardrail table applied by the rule engine. Patterns
// are case-insensitive.
var DefaultRules = []Rule{
	// Legal advice phrasing
	{CategoryLegalAdvice, `you should (definitely|certainly|absolutely)`, "directive advice", SeverityHigh},
	{CategoryLegalAdvice, `you must (sue|file|take legal action)`, "imperative to litigate", SeverityHigh},
	{CategoryLegalAdvice, `i (advise|recommend|suggest) (you|that you) (must|should)`, "first-person advice", SeverityHigh},

	// Outcome predictions
	{CategoryOutcomePrediction, `you (will|are going to) (win|lose|succeed|fail)`, "outcome prediction", SeverityHigh},
	{CategoryOutcomePrediction, `(guaranteed|certain|definitely) (outcome|result|win)`, "certainty claim", SeverityHigh},
	{CategoryOutcomePrediction, `guaranteed win`, "certainty claim", SeverityHigh},
	{CategoryOutcomePrediction, `the (court|judge) will (definitely|certainly|likely)`, "court prediction", SeverityMedium},
	{CategoryOutcomePrediction, `you have a (strong|weak|good|bad) case`, "case assessment", SeverityMedium},
	{CategoryOutcomePrediction, `your chances (of winning|are)`, "odds assessment", SeverityMedium},

	// Specific lawyer recommendations with contact info
	{CategorySpecificLawyer, `contact (this|my|our) lawyer`, "specific lawyer referral", SeverityHigh},
	{CategorySpecificLawyer, `hire (this|a specific) advocate`, "specific advocate referral", SeverityHigh},
	{CategorySpecificLawyer, `(?:phone|call|contact):\s*\+?\d{10,}`, "phone number", SeverityMedium},
	{CategorySpecificLawyer, `[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`, "email address", SeverityMedium},

	// Out-of-scope advice
	{CategoryMedicalAdvice, `(take|stop taking) (this|that|your) (medication|medicine|treatment)`, "medical advice", SeverityMedium},
	{CategoryFinancialAdvice, `(invest|put) your (money|savings) (in|into)`, "financial advice", SeverityMedium},

	// Personal information requests
	{CategoryPersonalInfo, `(share|provide|send|tell) (me |us )?(your )?(aadhaar|pan card|bank account|password|otp)`, "sensitive data request", SeverityHigh},

	// Coercive language
	{CategoryCoerciveLanguage, `you have no (choice|other option)`, "coercion", SeverityMedium},
	{CategoryCoerciveLanguage, `you must act (now|immediately) or`, "pressure tactic", SeverityLow},
}

// replacements soften or redact flagged phrasing during sanitization. One
// entry per DefaultRules pattern (contact details are redacted separately),
// so no rule hit survives verbatim. Each replacement must itself be clean
// under DefaultRules so that sanitization is idempotent.
var replacements = []struct {
	Pattern string
	New     string
}{
	// Legal advice phrasing
	{`you should (?:definitely|certainly|absolutely)`, "you may consider"},
	{`you must (sue|file|take legal action)`, "you have the option to $1"},
	{`i (?:advise|recommend|suggest) (?:you|that you) (?:must|should)`, "you might consider"},

	// Outcome predictions
	{`you (?:will|are going to) (?:win|lose|succeed|fail)`, "the outcome will depend on the merits of your case"},
	{`(?:guaranteed|certain|definitely) (?:outcome|result|win)`, "possible outcome"},
	{`guaranteed`, "possible"},
	{`the (court|judge) will (?:definitely|certainly|likely)`, "the $1 may"},
	{`you have a (?:strong|weak|good|bad) case`, "the strength of a case depends on its facts and evidence"},
	{`your chances (?:of winning|are)`, "the outcome"},

	// Lawyer referrals
	{`contact (?:this|my|our) lawyer`, "consult a qualified lawyer"},
	{`hire (?:this|a specific) advocate`, "engage a qualified advocate"},

	// Out-of-scope advice
	{`(?:take|stop taking) (?:this|that|your) (?:medication|medicine|treatment)`, "consult a medical professional"},
	{`(?:invest|put) your (?:money|savings) (?:in|into)`, "seek professional financial guidance before committing funds to"},

	// Personal information requests
	{`(?:share|provide|send|tell) (?:me |us )?(?:your )?(?:aadhaar|pan card|bank account|password|otp)`, "[sensitive information request removed]"},

	// Coercive language
	{`you have no (?:choice|other option)(?: but)?`, "one option is"},
	{`you must act (?:now|immediately) or`, "consider acting promptly, or"},
}
