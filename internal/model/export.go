package model

import "time"

// CatalogExport is the top-level JSON structure of the reference catalog.
// It is also the format accepted by catalog import.
type CatalogExport struct {
	ExportedAt *time.Time   `json:"exportedAt,omitempty"`
	Quizzes    []QuizImport `json:"quizzes"`
	Careers    []Career     `json:"careers"`
}

// QuizImport is a quiz together with its questions. Question QuizID values
// are ignored on import.
type QuizImport struct {
	Quiz
	Questions []Question `json:"questions"`
}
