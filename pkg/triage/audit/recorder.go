package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"legal-triage-be/pkg/triage/state"
)

// Publisher hands an audit payload to the event bus.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Record is the wire shape of one completed pipeline invocation.
type Record struct {
	ChatSessionId string                   `json:"chat_session_id"`
	UserId        string                   `json:"user_id"`
	Domain        string                   `json:"domain"`
	SubDomain     string                   `json:"sub_domain"`
	Confidence    float64                  `json:"confidence"`
	FinalStage    string                   `json:"final_stage"`
	Outcome       string                   `json:"outcome"`
	Trace         []map[string]interface{} `json:"trace"`
	RecordedAt    time.Time                `json:"recorded_at"`
}

// Recorder emits one audit record per invocation. Auditing is best-effort:
// a bus failure is logged, never surfaced to the user.
type Recorder struct {
	publisher Publisher
	logger    *log.Logger
}

func NewRecorder(publisher Publisher, logger *log.Logger) *Recorder {
	return &Recorder{
		publisher: publisher,
		logger:    logger,
	}
}

// Record publishes the invocation's audit trail.
func (r *Recorder) Record(ctx context.Context, sessionID, userID string, outcome state.Outcome, finalStage state.Stage, confidence float64, classification *state.Classification, trace []state.TraceEntry) {
	if r.publisher == nil {
		return
	}

	record := Record{
		ChatSessionId: sessionID,
		UserId:        userID,
		Confidence:    confidence,
		FinalStage:    string(finalStage),
		Outcome:       string(outcome),
		RecordedAt:    time.Now(),
	}
	if classification != nil {
		record.Domain = classification.Domain
		record.SubDomain = classification.SubDomain
	}

	conv := state.Conversation{Trace: trace}
	record.Trace = conv.TraceMaps()

	payload, err := json.Marshal(record)
	if err != nil {
		r.logger.Printf("[ERROR] Failed to marshal audit record: %v", err)
		return
	}

	if err := r.publisher.Publish(ctx, payload); err != nil {
		r.logger.Printf("[WARN] Failed to publish audit record for session %s: %v", sessionID, err)
	}
}
