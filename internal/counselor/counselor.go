// Package counselor keeps per-user conversation logs with the career
// counselor and produces its replies through a pluggable Responder.
package counselor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

// DefaultHistorySize is the number of earlier messages passed to the responder.
const DefaultHistorySize = 10

// Service answers counselor messages. Authenticated users get a persisted
// conversation and replies from the member responder; anonymous users get a
// reply from the anonymous responder and nothing is stored.
type Service struct {
	store       *store.Store
	member      Responder
	anonymous   Responder
	historySize int
}

// NewService creates a Service.
func NewService(s *store.Store, member, anonymous Responder) *Service {
	return &Service{store: s, member: member, anonymous: anonymous, historySize: DefaultHistorySize}
}

// Respond handles one message from userID, where 0 means anonymous.
func (s *Service) Respond(ctx context.Context, userID int64, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("message content is required: %w", model.ErrValidation)
	}

	if userID == 0 {
		reply, err := s.anonymous.Respond(ctx, nil, message)
		if err != nil {
			slog.WarnContext(ctx, "anonymous responder failed", "error", err)
			return ReplyFallback.localize(ctx), nil
		}
		return reply, nil
	}

	conv := s.store.AppendToLatestConversation(userID, model.AiMessage{Role: model.RoleUser, Content: message})
	earlier := conv.Messages[:len(conv.Messages)-1]
	history := earlier[max(0, len(earlier)-s.historySize):]

	reply, err := s.member.Respond(ctx, history, message)
	if err != nil {
		slog.ErrorContext(ctx, "counselor responder failed", "user_id", userID, "conversation_id", conv.ID, "error", err)
		return ReplyFallback.localize(ctx), nil
	}

	if _, err := s.store.AppendMessages(conv.ID, model.AiMessage{Role: model.RoleAssistant, Content: reply}); err != nil {
		return "", fmt.Errorf("store reply: %w", err)
	}
	return reply, nil
}

// Conversations returns the user's conversations, most recent first.
func (s *Service) Conversations(ctx context.Context, userID int64) []model.AiConversation {
	convs := s.store.ListConversations(userID)
	if convs == nil {
		return []model.AiConversation{}
	}
	return convs
}
