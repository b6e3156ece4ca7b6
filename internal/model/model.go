package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level (distinct from MessageRole which is chat message roles).
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         UserRole  `json:"role"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"createdAt"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// UserIDFromContext returns the authenticated user's ID, or 0 for anonymous requests.
func UserIDFromContext(ctx context.Context) int64 {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return 0
}

type langCtxKey struct{}

// ContextWithLanguage stores the resolved request language.
func ContextWithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langCtxKey{}, lang)
}

// LanguageFromContext returns the request language, or "" when unset.
func LanguageFromContext(ctx context.Context) string {
	lang, _ := ctx.Value(langCtxKey{}).(string)
	return lang
}

// QuizType classifies an assessment.
type QuizType string

const (
	QuizPersonality QuizType = "personality"
	QuizSkills      QuizType = "skills"
)

// Quiz is a static assessment definition.
type Quiz struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Type           QuizType `json:"type"`
	TotalQuestions int      `json:"totalQuestions"`
	Language       string   `json:"language"`
}

// Option is one selectable answer. Value is either a number or a string.
type Option struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Value any    `json:"value"`
}

// Question belongs to a quiz and is displayed in Order.
type Question struct {
	ID       int64    `json:"id"`
	QuizID   int64    `json:"quizId"`
	Text     string   `json:"text"`
	Order    int      `json:"order"`
	Options  []Option `json:"options"`
	Language string   `json:"language"`
}

// Answer records a student's response to one question.
type Answer struct {
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
}

// QuizResults is the results payload of an attempt. Traits and Skills are
// placeholder scores filled in on completion.
type QuizResults struct {
	Answers []Answer       `json:"answers"`
	Traits  map[string]int `json:"traits,omitempty"`
	Skills  map[string]int `json:"skills,omitempty"`
}

// UserQuiz is a student's attempt at a quiz.
type UserQuiz struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"userId"`
	QuizID      int64       `json:"quizId"`
	Completed   bool        `json:"completed"`
	Progress    int         `json:"progress"`
	Results     QuizResults `json:"results"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// PathwayStep is one stage of a career's education pathway.
type PathwayStep struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Duration      string   `json:"duration"`
	KeySkills     []string `json:"keySkills"`
	EstimatedCost string   `json:"estimatedCost"`
	Current       bool     `json:"current,omitempty"`
}

// EducationPathway is the ordered list of steps toward a career.
type EducationPathway struct {
	Steps []PathwayStep `json:"steps"`
}

// Career is static reference data.
type Career struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	SkillsRequired   []string         `json:"skillsRequired"`
	EducationPathway EducationPathway `json:"educationPathway"`
	JobProspects     string           `json:"jobProspects"`
	ImageURL         string           `json:"imageUrl,omitempty"`
	Language         string           `json:"language"`
}

// UserCareer links a user to a career with a match percentage.
type UserCareer struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	CareerID        int64     `json:"careerId"`
	MatchPercentage int       `json:"matchPercentage"`
	IsFavorite      bool      `json:"isFavorite"`
	ViewedAt        time.Time `json:"viewedAt"`
}

// MessageRole represents a chat message role.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// AiMessage is one entry of a counselor conversation. Timestamp is Unix milliseconds.
type AiMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp"`
}

// AiConversation is a user's counselor chat log.
type AiConversation struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Messages  []AiMessage `json:"messages"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	DefaultLanguage string
	SecureCookies   bool
	SessionKey      string
}
