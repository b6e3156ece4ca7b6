// Package dashboard builds the class overview shown to teachers.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

const (
	// DefaultMaxStudents caps the number of students in one dashboard.
	DefaultMaxStudents = 28
	// TotalAssessments is the number of assessments a student is expected to complete.
	TotalAssessments = 3

	primaryThreshold   = 85
	secondaryThreshold = 70
	topInterests       = 5
	activityWindowDays = 5
)

// ClassStats are the aggregate counts for the class.
type ClassStats struct {
	TotalStudents     int `json:"totalStudents"`
	CompletedProfiles int `json:"completedProfiles"`
	CompletionRate    int `json:"completionRate"`
	CareerInterests   int `json:"careerInterests"`
	NeedGuidance      int `json:"needGuidance"`
}

// CareerInterest counts students with a career as a primary interest.
type CareerInterest struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// StudentSummary is one row of the student table.
type StudentSummary struct {
	ID                   int64     `json:"id"`
	FullName             string    `json:"fullName"`
	StudentID            string    `json:"studentId"`
	Progress             int       `json:"progress"`
	AssessmentsCompleted int       `json:"assessmentsCompleted"`
	TotalAssessments     int       `json:"totalAssessments"`
	CareerInterests      []string  `json:"careerInterests"`
	SecondaryInterests   []string  `json:"secondaryInterests"`
	NeedsGuidance        bool      `json:"needsGuidance"`
	LastActivity         time.Time `json:"lastActivity"`
}

// Dashboard is the full teacher view.
type Dashboard struct {
	ClassStats         ClassStats       `json:"classStats"`
	TopCareerInterests []CareerInterest `json:"topCareerInterests"`
	Students           []StudentSummary `json:"students"`
}

// Builder computes dashboards from the store.
type Builder struct {
	store       *store.Store
	rand        model.Rand
	now         model.Clock
	maxStudents int
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxStudents overrides DefaultMaxStudents. Values below 1 are ignored.
func WithMaxStudents(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxStudents = n
		}
	}
}

// New creates a Builder. Last-activity timestamps are drawn from r.
func New(s *store.Store, r model.Rand, now model.Clock, opts ...Option) *Builder {
	b := &Builder{store: s, rand: r, now: now, maxStudents: DefaultMaxStudents}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// Build assembles the dashboard for a teacher. The caller is responsible for
// checking that teacherID belongs to a teacher. classID does not filter
// students yet; every student up to the configured maximum is included.
func (b *Builder) Build(ctx context.Context, teacherID int64, classID string) Dashboard {
	slog.DebugContext(ctx, "building dashboard", "teacher_id", teacherID, "class", classID)

	students := lo.Filter(b.store.ListUsers(), func(u model.User, _ int) bool {
		return u.Role == model.UserRoleStudent
	})
	if len(students) > b.maxStudents {
		students = students[:b.maxStudents]
	}

	var (
		stats     = ClassStats{TotalStudents: len(students)}
		counts    = map[string]int{}
		firstSeen []string
		summaries = make([]StudentSummary, 0, len(students))
	)

	for _, st := range students {
		completed := lo.CountBy(b.store.ListUserQuizzes(st.ID), func(uq model.UserQuiz) bool {
			return uq.Completed
		})
		if completed > 0 {
			stats.CompletedProfiles++
		}

		primary, secondary := []string{}, []string{}
		for _, uc := range b.store.ListUserCareers(st.ID) {
			career, err := b.store.GetCareer(uc.CareerID)
			if err != nil {
				continue
			}
			switch {
			case uc.MatchPercentage >= primaryThreshold:
				primary = append(primary, career.Title)
				if counts[career.Title] == 0 {
					firstSeen = append(firstSeen, career.Title)
				}
				counts[career.Title]++
			case uc.MatchPercentage >= secondaryThreshold:
				secondary = append(secondary, career.Title)
			}
		}

		needs := len(primary) == 0 || completed < 2
		if needs {
			stats.NeedGuidance++
		}

		daysAgo := b.rand.IntN(activityWindowDays)
		summaries = append(summaries, StudentSummary{
			ID:                   st.ID,
			FullName:             st.FullName,
			StudentID:            fmt.Sprintf("STU-2023-%03d", st.ID),
			Progress:             percent(completed, TotalAssessments),
			AssessmentsCompleted: completed,
			TotalAssessments:     TotalAssessments,
			CareerInterests:      primary,
			SecondaryInterests:   secondary,
			NeedsGuidance:        needs,
			LastActivity:         b.now().Add(-time.Duration(daysAgo) * 24 * time.Hour),
		})
	}

	stats.CompletionRate = percent(stats.CompletedProfiles, stats.TotalStudents)
	stats.CareerInterests = len(counts)

	slices.SortStableFunc(firstSeen, func(x, y string) int {
		return counts[y] - counts[x]
	})
	if len(firstSeen) > topInterests {
		firstSeen = firstSeen[:topInterests]
	}
	top := lo.Map(firstSeen, func(name string, _ int) CareerInterest {
		return CareerInterest{Name: name, Count: counts[name], Percentage: percent(counts[name], stats.TotalStudents)}
	})

	return Dashboard{ClassStats: stats, TopCareerInterests: top, Students: summaries}
}
