// Package assessment tracks students' progress through quizzes.
package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

// Engine merges answers into quiz attempts and completes them.
type Engine struct {
	store *store.Store
	rand  model.Rand
	now   model.Clock
}

// New creates an Engine. Placeholder scores on completion are drawn from r.
func New(s *store.Store, r model.Rand, now model.Clock) *Engine {
	return &Engine{store: s, rand: r, now: now}
}

// Progress returns the percentage of answered questions, rounded and clamped to [0, 100].
func Progress(answered, total int) int {
	if total <= 0 || answered <= 0 {
		return 0
	}
	p := int(math.Round(float64(answered) / float64(total) * 100))
	return min(p, 100)
}

// StartOrGetAttempt returns the user's attempt at a quiz, creating an empty one if needed.
func (e *Engine) StartOrGetAttempt(ctx context.Context, userID, quizID int64) (model.UserQuiz, error) {
	if _, err := e.store.GetQuiz(quizID); err != nil {
		return model.UserQuiz{}, err
	}
	uq, created := e.store.GetOrCreateUserQuiz(userID, quizID)
	if created {
		slog.DebugContext(ctx, "started attempt", "user_id", userID, "quiz_id", quizID, "attempt_id", uq.ID)
	}
	return uq, nil
}

// SaveAnswer records an answer for a question, replacing any earlier answer
// to the same question, and recomputes progress from the number of distinct
// answered questions.
func (e *Engine) SaveAnswer(ctx context.Context, attemptID, questionID int64, answer string) (model.UserQuiz, error) {
	attempt, err := e.store.GetUserQuizByID(attemptID)
	if err != nil {
		return model.UserQuiz{}, err
	}
	quiz, err := e.store.GetQuiz(attempt.QuizID)
	if err != nil {
		return model.UserQuiz{}, fmt.Errorf("attempt %d: %w", attemptID, err)
	}

	return e.store.UpdateUserQuiz(attemptID, func(uq *model.UserQuiz) error {
		uq.Results.Answers = mergeAnswer(uq.Results.Answers, model.Answer{QuestionID: questionID, Answer: answer})
		if uq.Completed {
			uq.Progress = 100
			return nil
		}
		// Progress never moves backwards, even if the quiz total was raised.
		uq.Progress = max(uq.Progress, Progress(len(uq.Results.Answers), quiz.TotalQuestions))
		return nil
	})
}

func mergeAnswer(answers []model.Answer, a model.Answer) []model.Answer {
	for i := range answers {
		if answers[i].QuestionID == a.QuestionID {
			answers[i].Answer = a.Answer
			return answers
		}
	}
	return append(answers, a)
}

// CompleteAttempt marks an attempt completed with progress 100. The
// completion time is set only the first time. Placeholder trait or skill
// scores are drawn again on every call.
func (e *Engine) CompleteAttempt(ctx context.Context, attemptID int64) (model.UserQuiz, error) {
	attempt, err := e.store.GetUserQuizByID(attemptID)
	if err != nil {
		return model.UserQuiz{}, err
	}
	quiz, err := e.store.GetQuiz(attempt.QuizID)
	if err != nil {
		return model.UserQuiz{}, fmt.Errorf("attempt %d: %w", attemptID, err)
	}

	uq, err := e.store.UpdateUserQuiz(attemptID, func(uq *model.UserQuiz) error {
		uq.Completed = true
		uq.Progress = 100
		if uq.CompletedAt == nil {
			t := e.now()
			uq.CompletedAt = &t
		}
		switch quiz.Type {
		case model.QuizPersonality:
			uq.Results.Traits = e.traits()
		case model.QuizSkills:
			uq.Results.Skills = e.skills()
		}
		return nil
	})
	if err != nil {
		return model.UserQuiz{}, err
	}
	slog.InfoContext(ctx, "attempt completed", "user_id", uq.UserID, "quiz_id", uq.QuizID, "attempt_id", uq.ID)
	return uq, nil
}

func (e *Engine) traits() map[string]int {
	return map[string]int{
		"analytical": model.RandRange(e.rand, 70, 30),
		"social":     model.RandRange(e.rand, 40, 40),
		"creative":   model.RandRange(e.rand, 60, 30),
	}
}

func (e *Engine) skills() map[string]int {
	return map[string]int{
		"technical":      model.RandRange(e.rand, 70, 30),
		"communication":  model.RandRange(e.rand, 40, 40),
		"problemSolving": model.RandRange(e.rand, 70, 20),
	}
}
