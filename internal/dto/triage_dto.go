package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Domain    string     `json:"domain,omitempty"`
	SubDomain string     `json:"sub_domain,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id              uuid.UUID `json:"id"`
	Role            string    `json:"role"`
	Chat            string    `json:"chat"`
	Stage           string    `json:"stage,omitempty"`
	IsClarification bool      `json:"is_clarification,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required"`
}

type SourceDTO struct {
	Citation  string `json:"citation"`
	SourceURL string `json:"source_url,omitempty"`
}

type SendChatResponseChat struct {
	Id        uuid.UUID `json:"id"`
	Chat      string    `json:"chat"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID             `json:"chat_session_id"`
	ChatSessionTitle string                `json:"title"`
	Outcome          string                `json:"outcome"` // "answered" | "clarify" | "refused" | "fallback" | "error"
	IsClarification  bool                  `json:"is_clarification"`
	Domain           string                `json:"domain,omitempty"`
	SubDomain        string                `json:"sub_domain,omitempty"`
	Confidence       float64               `json:"confidence"`
	Sources          []SourceDTO           `json:"sources,omitempty"`
	Sent             *SendChatResponseChat `json:"sent"`
	Reply            *SendChatResponseChat `json:"reply"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type GetAuditTrailResponse struct {
	Id         uuid.UUID                `json:"id"`
	Domain     string                   `json:"domain"`
	SubDomain  string                   `json:"sub_domain"`
	Confidence float64                  `json:"confidence"`
	FinalStage string                   `json:"final_stage"`
	Outcome    string                   `json:"outcome"`
	Trace      []map[string]interface{} `json:"trace"`
	CreatedAt  time.Time                `json:"created_at"`
}
