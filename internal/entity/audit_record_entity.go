package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord captures one full pipeline invocation for review.
type AuditRecord struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	UserId        uuid.UUID
	Domain        string
	SubDomain     string
	Confidence    float64
	FinalStage    string
	Outcome       string
	Trace         []map[string]interface{}
	CreatedAt     time.Time
}
