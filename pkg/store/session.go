package store

// Session represents the active triage conversation state in memory
type Session struct {
	ID     string `json:"id"` // ChatSessionID
	UserID string `json:"user_id"`
	State  string `json:"state"` // "GATHERING" | "ANSWERED"

	// Classification carried across turns
	Domain     string  `json:"domain"`
	SubDomain  string  `json:"sub_domain"`
	Confidence float64 `json:"confidence"`

	// Clarification bookkeeping
	ClarificationCount int      `json:"clarification_count"`
	AskedQuestions     []string `json:"asked_questions"`
	LastQuestion       string   `json:"last_question"`

	// Metadata for last interaction
	LastQuery string `json:"last_query"`
}

const (
	StateGathering = "GATHERING"
	StateAnswered  = "ANSWERED"
)
