package store

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/tawjihai/tawjih/internal/model"
)

// Store is the in-memory entity store. All maps are guarded by a single
// mutex; every read-modify-write primitive runs entirely under the write
// lock, and every read hands out a copy so callers never alias store memory.
type Store struct {
	mu  sync.RWMutex
	now model.Clock

	// importMu serializes catalog file imports so the duplicate check,
	// the import and the hash record happen as one step.
	importMu sync.Mutex

	users         map[int64]*model.User
	quizzes       map[int64]*model.Quiz
	questions     map[int64]*model.Question
	userQuizzes   map[int64]*model.UserQuiz
	careers       map[int64]*model.Career
	userCareers   map[int64]*model.UserCareer
	conversations map[int64]*model.AiConversation
	metadata      map[string]string

	seq counters
}

// counters hold the last ID handed out per entity kind; IDs start at 1.
type counters struct {
	user, quiz, question, userQuiz, career, userCareer, conversation int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for every timestamp the store records.
func WithClock(now model.Clock) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:           time.Now,
		users:         make(map[int64]*model.User),
		quizzes:       make(map[int64]*model.Quiz),
		questions:     make(map[int64]*model.Question),
		userQuizzes:   make(map[int64]*model.UserQuiz),
		careers:       make(map[int64]*model.Career),
		userCareers:   make(map[int64]*model.UserCareer),
		conversations: make(map[int64]*model.AiConversation),
		metadata:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sortedIDs returns the keys of m in ascending order, which is also creation order.
func sortedIDs[T any](m map[int64]T) []int64 {
	return slices.Sorted(maps.Keys(m))
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, model.ErrNotFound)
}

// CreateQuiz stores a quiz and returns it with its assigned ID.
func (s *Store) CreateQuiz(q model.Quiz) model.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.quiz++
	q.ID = s.seq.quiz
	s.quizzes[q.ID] = &q
	return q
}

// GetQuiz returns a quiz by ID.
func (s *Store) GetQuiz(id int64) (model.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return model.Quiz{}, notFound("quiz", id)
	}
	return *q, nil
}

// ListQuizzes returns quizzes in the given language.
func (s *Store) ListQuizzes(language string) []model.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var quizzes []model.Quiz
	for _, id := range sortedIDs(s.quizzes) {
		if q := s.quizzes[id]; q.Language == language {
			quizzes = append(quizzes, *q)
		}
	}
	return quizzes
}

// CreateQuestion stores a question.
func (s *Store) CreateQuestion(q model.Question) model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.question++
	q.ID = s.seq.question
	q.Options = slices.Clone(q.Options)
	s.questions[q.ID] = &q
	return cloneQuestion(&q)
}

// ListQuizQuestions returns a quiz's questions in the given language, sorted by display order.
func (s *Store) ListQuizQuestions(quizID int64, language string) []model.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var questions []model.Question
	for _, id := range sortedIDs(s.questions) {
		q := s.questions[id]
		if q.QuizID == quizID && q.Language == language {
			questions = append(questions, cloneQuestion(q))
		}
	}
	slices.SortStableFunc(questions, func(a, b model.Question) int {
		return a.Order - b.Order
	})
	return questions
}

func cloneQuestion(q *model.Question) model.Question {
	c := *q
	c.Options = slices.Clone(q.Options)
	return c
}
