package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tawjihai/tawjih/internal/model"
)

// ImportResult reports the outcome of a catalog file import.
type ImportResult struct {
	Quizzes   int  `json:"quizzes"`
	Careers   int  `json:"careers"`
	Duplicate bool `json:"duplicate"`
}

// ImportCatalogFile imports a JSON catalog unless a file with the same name
// and content was imported before. Concurrent imports run one at a time.
func (s *Store) ImportCatalogFile(name string, data []byte) (ImportResult, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	hash := sha256sum(data)
	if s.GetImportedFileHash(name) == hash {
		return ImportResult{Duplicate: true}, nil
	}

	var cat model.CatalogExport
	if err := json.Unmarshal(data, &cat); err != nil {
		return ImportResult{}, fmt.Errorf("parse catalog %s: %w: %v", name, model.ErrValidation, err)
	}
	quizzes, careers := s.ImportCatalog(cat)
	s.SetImportedFileHash(name, hash)
	return ImportResult{Quizzes: quizzes, Careers: careers}, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Snapshot builds an export-ready copy of the reference catalog: every quiz
// with its questions, and every career, across all languages.
func (s *Store) Snapshot() model.CatalogExport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	export := model.CatalogExport{
		Quizzes: []model.QuizImport{},
		Careers: []model.Career{},
	}
	for _, qid := range sortedIDs(s.quizzes) {
		quiz := *s.quizzes[qid]
		qi := model.QuizImport{Quiz: quiz, Questions: []model.Question{}}
		for _, id := range sortedIDs(s.questions) {
			if q := s.questions[id]; q.QuizID == quiz.ID {
				qi.Questions = append(qi.Questions, cloneQuestion(q))
			}
		}
		export.Quizzes = append(export.Quizzes, qi)
	}
	for _, id := range sortedIDs(s.careers) {
		export.Careers = append(export.Careers, cloneCareer(s.careers[id]))
	}
	return export
}

// ImportCatalog adds the quizzes, questions and careers of a catalog to the
// store. IDs in the catalog are ignored and reassigned. It returns the number
// of quizzes and careers created.
func (s *Store) ImportCatalog(cat model.CatalogExport) (quizzes, careers int) {
	for _, qi := range cat.Quizzes {
		quiz := qi.Quiz
		quiz.Language = defaultLanguage(quiz.Language)
		if quiz.TotalQuestions <= 0 {
			quiz.TotalQuestions = len(qi.Questions)
		}
		created := s.CreateQuiz(quiz)
		for i, q := range qi.Questions {
			q.QuizID = created.ID
			q.Language = defaultLanguage(q.Language)
			if q.Order == 0 {
				q.Order = i + 1
			}
			s.CreateQuestion(q)
		}
		quizzes++
	}
	for _, c := range cat.Careers {
		c.Language = defaultLanguage(c.Language)
		s.CreateCareer(c)
		careers++
	}
	return quizzes, careers
}

func defaultLanguage(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}
