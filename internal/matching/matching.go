// Package matching maintains per-user career match percentages, favorites
// and views, and orders careers for recommendation.
package matching

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

const (
	// ReferenceLanguage is the catalog language used for recalculation.
	ReferenceLanguage = "en"
	// DisplayDefault is shown for careers the user has no match for yet.
	DisplayDefault = 80

	freshMatchBase = 70
	freshMatchSpan = 30
)

// Aggregator derives career recommendations from user/career relationships.
type Aggregator struct {
	store *store.Store
	rand  model.Rand
	now   model.Clock
}

// New creates an Aggregator.
func New(s *store.Store, r model.Rand, now model.Clock) *Aggregator {
	return &Aggregator{store: s, rand: r, now: now}
}

func (a *Aggregator) freshMatch() int {
	return model.RandRange(a.rand, freshMatchBase, freshMatchSpan)
}

// Matches returns the user's match percentage per career ID. Careers the
// user never touched are absent.
func (a *Aggregator) Matches(ctx context.Context, userID int64) map[int64]int {
	return lo.Associate(a.store.ListUserCareers(userID), func(uc model.UserCareer) (int64, int) {
		return uc.CareerID, uc.MatchPercentage
	})
}

// Recommended returns the careers in language sorted by descending match.
// Careers without a match sort as 0; ties keep catalog order.
func (a *Aggregator) Recommended(ctx context.Context, userID int64, language string) []model.Career {
	careers := a.store.ListCareers(language)
	matches := a.Matches(ctx, userID)
	slices.SortStableFunc(careers, func(x, y model.Career) int {
		return matches[y.ID] - matches[x.ID]
	})
	return careers
}

// DisplayPercentage is the match shown next to a recommended career.
// Unlike the ordering in Recommended, an absent match displays as DisplayDefault.
func DisplayPercentage(matches map[int64]int, careerID int64) int {
	if m, ok := matches[careerID]; ok {
		return m
	}
	return DisplayDefault
}

// ToggleFavorite sets the favorite flag, creating the relationship with a
// fresh placeholder match when the user has none for this career.
func (a *Aggregator) ToggleFavorite(ctx context.Context, userID, careerID int64, favorite bool) (model.UserCareer, error) {
	if _, err := a.store.GetCareer(careerID); err != nil {
		return model.UserCareer{}, err
	}
	uc, created := a.store.UpsertUserCareer(userID, careerID,
		func() model.UserCareer {
			return model.UserCareer{MatchPercentage: a.freshMatch(), IsFavorite: favorite}
		},
		func(uc *model.UserCareer) { uc.IsFavorite = favorite },
	)
	slog.DebugContext(ctx, "favorite updated", "user_id", userID, "career_id", careerID, "favorite", favorite, "created", created)
	return uc, nil
}

// RecordView stamps the time the user last viewed a career, creating the
// relationship with a fresh placeholder match when needed.
func (a *Aggregator) RecordView(ctx context.Context, userID, careerID int64) (model.UserCareer, error) {
	if _, err := a.store.GetCareer(careerID); err != nil {
		return model.UserCareer{}, err
	}
	uc, _ := a.store.UpsertUserCareer(userID, careerID,
		func() model.UserCareer { return model.UserCareer{MatchPercentage: a.freshMatch(), ViewedAt: a.now()} },
		func(uc *model.UserCareer) { uc.ViewedAt = a.now() },
	)
	return uc, nil
}

// RecalculateAll assigns a new placeholder match for every reference career.
// Quiz results are not consulted.
func (a *Aggregator) RecalculateAll(ctx context.Context, userID int64) {
	careers := a.store.ListCareers(ReferenceLanguage)
	for _, c := range careers {
		match := a.freshMatch()
		a.store.UpsertUserCareer(userID, c.ID,
			func() model.UserCareer { return model.UserCareer{MatchPercentage: match} },
			func(uc *model.UserCareer) { uc.MatchPercentage = match },
		)
	}
	slog.InfoContext(ctx, "career matches recalculated", "user_id", userID, "careers", len(careers))
}
