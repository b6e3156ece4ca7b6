package store

import (
	"slices"

	"github.com/tawjihai/tawjih/internal/model"
)

// CreateConversation stores a new conversation with the given messages.
func (s *Store) CreateConversation(userID int64, messages ...model.AiMessage) model.AiConversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createConversationLocked(userID, messages)
}

func (s *Store) createConversationLocked(userID int64, messages []model.AiMessage) model.AiConversation {
	now := s.now()
	s.seq.conversation++
	conv := model.AiConversation{
		ID:        s.seq.conversation,
		UserID:    userID,
		Messages:  s.stampMessages(nil, messages),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = &conv
	return cloneConversation(&conv)
}

// GetConversation returns a conversation by ID.
func (s *Store) GetConversation(id int64) (model.AiConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return model.AiConversation{}, notFound("conversation", id)
	}
	return cloneConversation(conv), nil
}

// ListConversations returns a user's conversations, most recently updated first.
func (s *Store) ListConversations(userID int64) []model.AiConversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listConversationsLocked(userID)
}

func (s *Store) listConversationsLocked(userID int64) []model.AiConversation {
	var list []model.AiConversation
	for _, id := range sortedIDs(s.conversations) {
		if c := s.conversations[id]; c.UserID == userID {
			list = append(list, cloneConversation(c))
		}
	}
	slices.SortStableFunc(list, func(a, b model.AiConversation) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return list
}

// AppendMessages adds messages to a conversation and bumps UpdatedAt.
// Messages without a timestamp are stamped with the current time.
func (s *Store) AppendMessages(id int64, messages ...model.AiMessage) (model.AiConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return model.AiConversation{}, notFound("conversation", id)
	}
	return s.appendLocked(conv, messages), nil
}

// AppendToLatestConversation adds messages to the user's most recently
// updated conversation, creating one when the user has none.
func (s *Store) AppendToLatestConversation(userID int64, messages ...model.AiMessage) model.AiConversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.listConversationsLocked(userID); len(existing) > 0 {
		return s.appendLocked(s.conversations[existing[0].ID], messages)
	}
	return s.createConversationLocked(userID, messages)
}

func (s *Store) appendLocked(conv *model.AiConversation, messages []model.AiMessage) model.AiConversation {
	updated := cloneConversation(conv)
	updated.Messages = s.stampMessages(updated.Messages, messages)
	updated.UpdatedAt = s.now()
	s.conversations[updated.ID] = &updated
	return cloneConversation(&updated)
}

func (s *Store) stampMessages(dst, messages []model.AiMessage) []model.AiMessage {
	if dst == nil {
		dst = make([]model.AiMessage, 0, len(messages))
	}
	for _, m := range messages {
		if m.Timestamp == 0 {
			m.Timestamp = s.now().UnixMilli()
		}
		dst = append(dst, m)
	}
	return dst
}

func cloneConversation(c *model.AiConversation) model.AiConversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return cp
}
