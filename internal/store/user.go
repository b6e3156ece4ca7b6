package store

import (
	"fmt"
	"log/slog"

	"github.com/tawjihai/tawjih/internal/model"
)

// CreateUser inserts a new user. Usernames are unique.
func (s *Store) CreateUser(u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			slog.Warn("duplicate username", "username", u.Username)
			return model.User{}, fmt.Errorf("username %q: %w", u.Username, model.ErrConflict)
		}
	}
	s.seq.user++
	u.ID = s.seq.user
	u.CreatedAt = s.now()
	s.users[u.ID] = &u
	slog.Info("created user", "id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// GetUserByUsername returns a user by username.
func (s *Store) GetUserByUsername(username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return model.User{}, fmt.Errorf("user %q: %w", username, model.ErrNotFound)
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, notFound("user", id)
	}
	return *u, nil
}

// ListUsers returns all users in ID order.
func (s *Store) ListUsers() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.users))
	for _, id := range sortedIDs(s.users) {
		users = append(users, *s.users[id])
	}
	return users
}

// UpdateUserLanguage sets a user's preferred language.
func (s *Store) UpdateUserLanguage(id int64, language string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, notFound("user", id)
	}
	updated := *u
	updated.Language = language
	s.users[id] = &updated
	return updated, nil
}

// UserCount returns the total number of users.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
