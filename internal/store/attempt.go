package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tawjihai/tawjih/internal/model"
)

// CreateUserQuiz stores a new attempt. StartedAt is set to now and
// CompletedAt is left empty.
func (s *Store) CreateUserQuiz(uq model.UserQuiz) model.UserQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserQuizLocked(uq)
}

func (s *Store) createUserQuizLocked(uq model.UserQuiz) model.UserQuiz {
	s.seq.userQuiz++
	c := cloneUserQuiz(&uq)
	c.ID = s.seq.userQuiz
	c.StartedAt = s.now()
	c.CompletedAt = nil
	if c.Results.Answers == nil {
		c.Results.Answers = []model.Answer{}
	}
	s.userQuizzes[c.ID] = &c
	return cloneUserQuiz(&c)
}

// GetUserQuizByID returns an attempt by ID.
func (s *Store) GetUserQuizByID(id int64) (model.UserQuiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uq, ok := s.userQuizzes[id]
	if !ok {
		return model.UserQuiz{}, notFound("user quiz", id)
	}
	return cloneUserQuiz(uq), nil
}

// GetUserQuiz returns the user's attempt at a quiz.
func (s *Store) GetUserQuiz(userID, quizID int64) (model.UserQuiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uq := s.findUserQuizLocked(userID, quizID); uq != nil {
		return cloneUserQuiz(uq), nil
	}
	return model.UserQuiz{}, fmt.Errorf("user %d quiz %d: %w", userID, quizID, model.ErrNotFound)
}

// ListUserQuizzes returns all attempts of a user in ID order.
func (s *Store) ListUserQuizzes(userID int64) []model.UserQuiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var attempts []model.UserQuiz
	for _, id := range sortedIDs(s.userQuizzes) {
		if uq := s.userQuizzes[id]; uq.UserID == userID {
			attempts = append(attempts, cloneUserQuiz(uq))
		}
	}
	return attempts
}

// GetOrCreateUserQuiz returns the user's attempt at a quiz, creating an empty
// one when none exists. The boolean reports whether a new attempt was created.
func (s *Store) GetOrCreateUserQuiz(userID, quizID int64) (model.UserQuiz, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uq := s.findUserQuizLocked(userID, quizID); uq != nil {
		return cloneUserQuiz(uq), false
	}
	return s.createUserQuizLocked(model.UserQuiz{UserID: userID, QuizID: quizID}), true
}

// UpdateUserQuiz applies fn to a copy of the attempt and stores the copy if fn
// succeeds. The whole read-modify-write runs under the store lock.
func (s *Store) UpdateUserQuiz(id int64, fn func(*model.UserQuiz) error) (model.UserQuiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uq, ok := s.userQuizzes[id]
	if !ok {
		return model.UserQuiz{}, notFound("user quiz", id)
	}
	updated := cloneUserQuiz(uq)
	if err := fn(&updated); err != nil {
		return model.UserQuiz{}, err
	}
	updated.ID = id
	s.userQuizzes[id] = &updated
	return cloneUserQuiz(&updated), nil
}

func (s *Store) findUserQuizLocked(userID, quizID int64) *model.UserQuiz {
	for _, id := range sortedIDs(s.userQuizzes) {
		if uq := s.userQuizzes[id]; uq.UserID == userID && uq.QuizID == quizID {
			return uq
		}
	}
	return nil
}

func cloneUserQuiz(uq *model.UserQuiz) model.UserQuiz {
	c := *uq
	c.Results.Answers = slices.Clone(uq.Results.Answers)
	c.Results.Traits = maps.Clone(uq.Results.Traits)
	c.Results.Skills = maps.Clone(uq.Results.Skills)
	if uq.CompletedAt != nil {
		t := *uq.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
