package state

import (
	"time"
)

// Stage identifies a step of the triage pipeline.
type Stage string

const (
	StageIntake   Stage = "intake"
	StageClassify Stage = "classify"
	StageClarify  Stage = "clarify"
	StageRetrieve Stage = "retrieve"
	StageRespond  Stage = "respond"
	StageValidate Stage = "validate"
	StageAudit    Stage = "audit"
)

// Outcome is the terminal disposition of one pipeline invocation.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeClarify  Outcome = "clarify"
	OutcomeRefused  Outcome = "refused"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
)

// TraceEntry records what one stage did during an invocation.
type TraceEntry struct {
	Stage      Stage                  `json:"stage"`
	StartedAt  time.Time              `json:"started_at"`
	DurationMs int64                  `json:"duration_ms"`
	Ok         bool                   `json:"ok"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// Classification is the result of the classify stage.
type Classification struct {
	Domain         string            `json:"domain"`
	SubDomain      string            `json:"sub_domain"`
	Confidence     float64           `json:"confidence"`
	ExtractedFacts map[string]string `json:"extracted_facts"`
	MissingFields  []string          `json:"missing_fields"`
	Reasoning      string            `json:"reasoning"`
}

// Conversation carries the evolving state of one invocation through the stages.
type Conversation struct {
	SessionID      string
	UserID         string
	Input          string
	Normalized     string
	Classification *Classification
	Trace          []TraceEntry
}

// AppendTrace records a completed stage on the conversation.
func (c *Conversation) AppendTrace(stage Stage, startedAt time.Time, ok bool, detail map[string]interface{}) {
	c.Trace = append(c.Trace, TraceEntry{
		Stage:      stage,
		StartedAt:  startedAt,
		DurationMs: time.Since(startedAt).Milliseconds(),
		Ok:         ok,
		Detail:     detail,
	})
}

// TraceMaps renders the trace for JSON persistence.
func (c *Conversation) TraceMaps() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(c.Trace))
	for _, t := range c.Trace {
		entry := map[string]interface{}{
			"stage":       string(t.Stage),
			"started_at":  t.StartedAt.Format(time.RFC3339Nano),
			"duration_ms": t.DurationMs,
			"ok":          t.Ok,
		}
		if t.Detail != nil {
			entry["detail"] = t.Detail
		}
		out = append(out, entry)
	}
	return out
}

// ClampConfidence bounds a raw model confidence into [0, 1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
