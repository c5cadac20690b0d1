package history

import (
	"context"
	"fmt"
	"strings"

	"legal-triage-be/internal/constant"
	"legal-triage-be/internal/entity"
	"legal-triage-be/internal/repository/specification"
	"legal-triage-be/internal/repository/unitofwork"
	"legal-triage-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader reconstructs conversation context from persisted chat messages.
type Loader struct {
	uowFactory  func() unitofwork.UnitOfWork
	maxMessages int
}

func NewLoader(uowFactory func() unitofwork.UnitOfWork, maxMessages int) *Loader {
	if maxMessages <= 0 {
		maxMessages = 10
	}
	return &Loader{
		uowFactory:  uowFactory,
		maxMessages: maxMessages,
	}
}

// LoadConversationHistory returns the most recent messages of a session in
// chronological order, mapped to the provider-agnostic chat format.
func (l *Loader) LoadConversationHistory(ctx context.Context, sessionID uuid.UUID) ([]llm.Message, error) {
	messages, err := l.recentMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llm.Message{
			Role:    mapRole(msg.Role),
			Content: msg.Chat,
		})
	}
	return out, nil
}

// AskedQuestions returns the clarifying questions already posed in this
// session, so the generator never repeats one.
func (l *Loader) AskedQuestions(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	messages, err := l.recentMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var asked []string
	for _, msg := range messages {
		if msg.Role != constant.ChatMessageRoleAssistant {
			continue
		}
		if msg.IsClarification || strings.HasSuffix(strings.TrimSpace(msg.Chat), "?") {
			asked = append(asked, msg.Chat)
		}
	}
	return asked, nil
}

// ClarificationCount counts the clarifying questions persisted for a session.
func (l *Loader) ClarificationCount(ctx context.Context, sessionID uuid.UUID) (int, error) {
	uow := l.uowFactory()
	count, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.ClarificationsOnly{},
		specification.NotDeleted{},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count clarifications: %w", err)
	}
	return int(count), nil
}

func (l *Loader) recentMessages(ctx context.Context, sessionID uuid.UUID) ([]*entity.ChatMessage, error) {
	uow := l.uowFactory()
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.NotDeleted{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: l.maxMessages},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	// restore chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func mapRole(role string) string {
	switch role {
	case constant.ChatMessageRoleAssistant, constant.ChatMessageRoleSystem:
		return role
	default:
		return constant.ChatMessageRoleUser
	}
}
