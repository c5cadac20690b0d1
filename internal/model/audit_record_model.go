package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditRecord struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Domain        string         `gorm:"type:varchar(64)"`
	SubDomain     string         `gorm:"type:varchar(64)"`
	Confidence    float64        `gorm:"type:numeric"`
	FinalStage    string         `gorm:"type:varchar(32)"`
	Outcome       string         `gorm:"type:varchar(32)"` // answered | clarify | refused | fallback | error
	Trace         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
