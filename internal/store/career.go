package store

import (
	"fmt"
	"slices"

	"github.com/tawjihai/tawjih/internal/model"
)

// CreateCareer stores a career.
func (s *Store) CreateCareer(c model.Career) model.Career {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.career++
	stored := cloneCareer(&c)
	stored.ID = s.seq.career
	s.careers[stored.ID] = &stored
	return cloneCareer(&stored)
}

// GetCareer returns a career by ID.
func (s *Store) GetCareer(id int64) (model.Career, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.careers[id]
	if !ok {
		return model.Career{}, notFound("career", id)
	}
	return cloneCareer(c), nil
}

// ListCareers returns careers in the given language, in creation order.
func (s *Store) ListCareers(language string) []model.Career {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var careers []model.Career
	for _, id := range sortedIDs(s.careers) {
		if c := s.careers[id]; c.Language == language {
			careers = append(careers, cloneCareer(c))
		}
	}
	return careers
}

// CreateUserCareer stores a user/career relationship. An unset ViewedAt is
// set to now.
func (s *Store) CreateUserCareer(uc model.UserCareer) model.UserCareer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserCareerLocked(uc)
}

func (s *Store) createUserCareerLocked(uc model.UserCareer) model.UserCareer {
	s.seq.userCareer++
	uc.ID = s.seq.userCareer
	if uc.ViewedAt.IsZero() {
		uc.ViewedAt = s.now()
	}
	s.userCareers[uc.ID] = &uc
	return uc
}

// GetUserCareer returns the relationship between a user and a career.
func (s *Store) GetUserCareer(userID, careerID int64) (model.UserCareer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uc := s.findUserCareerLocked(userID, careerID); uc != nil {
		return *uc, nil
	}
	return model.UserCareer{}, fmt.Errorf("user %d career %d: %w", userID, careerID, model.ErrNotFound)
}

// ListUserCareers returns a user's career relationships in ID order.
func (s *Store) ListUserCareers(userID int64) []model.UserCareer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []model.UserCareer
	for _, id := range sortedIDs(s.userCareers) {
		if uc := s.userCareers[id]; uc.UserID == userID {
			list = append(list, *uc)
		}
	}
	return list
}

// UpsertUserCareer updates the (user, career) relationship with update, or
// creates it from create when it does not exist yet. The boolean reports
// whether a new record was created.
func (s *Store) UpsertUserCareer(userID, careerID int64, create func() model.UserCareer, update func(*model.UserCareer)) (model.UserCareer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.findUserCareerLocked(userID, careerID); existing != nil {
		updated := *existing
		update(&updated)
		updated.ID, updated.UserID, updated.CareerID = existing.ID, userID, careerID
		s.userCareers[updated.ID] = &updated
		return updated, false
	}
	fresh := create()
	fresh.UserID, fresh.CareerID = userID, careerID
	return s.createUserCareerLocked(fresh), true
}

func (s *Store) findUserCareerLocked(userID, careerID int64) *model.UserCareer {
	for _, id := range sortedIDs(s.userCareers) {
		if uc := s.userCareers[id]; uc.UserID == userID && uc.CareerID == careerID {
			return uc
		}
	}
	return nil
}

func cloneCareer(c *model.Career) model.Career {
	cp := *c
	cp.SkillsRequired = slices.Clone(c.SkillsRequired)
	cp.EducationPathway.Steps = make([]model.PathwayStep, len(c.EducationPathway.Steps))
	for i, step := range c.EducationPathway.Steps {
		step.KeySkills = slices.Clone(step.KeySkills)
		cp.EducationPathway.Steps[i] = step
	}
	return cp
}
