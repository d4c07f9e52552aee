package services

import (
	"context"
	"strings"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/pkg/dday"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Window widening applied on the on-demand (user-facing) match path so a
// freshly generated feed pre-loads near-future content.
const (
	widenedWeekMargin  = 4
	widenedMonthMargin = 3

	// Postpartum week-window content stops applying past these ages.
	postpartumWeekCapBatch    = 8
	postpartumWeekCapOnDemand = 12
)

// ContentStore is the slice of the content library the matcher queries,
// one method per eligibility branch.
type ContentStore interface {
	FindByStage(ctx context.Context, stage string) ([]models.ContentItem, error)
	FindByStageWindowless(ctx context.Context, stage string) ([]models.ContentItem, error)
	FindByStageWeekRange(ctx context.Context, stage string, weekLo, weekHi int) ([]models.ContentItem, error)
	FindByStagesMonthRange(ctx context.Context, stages []string, monthLo, monthHi int) ([]models.ContentItem, error)
	FindWorkItems(ctx context.Context) ([]models.ContentItem, error)
	FindGovernmentSupport(ctx context.Context) ([]models.ContentItem, error)
}

// MatcherService computes the set of content items currently eligible
// for one user. Match has no side effects and is safe to call
// repeatedly; the materializer is responsible for dedup on persist.
type MatcherService struct {
	content ContentStore
}

// NewMatcherService creates a new instance of MatcherService.
func NewMatcherService(content ContentStore) *MatcherService {
	return &MatcherService{content: content}
}

// Match returns every content item eligible for the profile at `now`,
// unioned across all applicable branches. The widened variant serves the
// on-demand path; the batch sweep uses exact windows.
func (s *MatcherService) Match(ctx context.Context, profile *models.Profile, children []models.Child, now time.Time, widened bool) ([]models.ContentItem, error) {
	var matched []models.ContentItem
	seen := make(map[primitive.ObjectID]bool)
	add := func(items []models.ContentItem) {
		for _, item := range items {
			if !seen[item.ID] {
				seen[item.ID] = true
				matched = append(matched, item)
			}
		}
	}

	switch profile.Stage {
	case models.StagePlanning:
		items, err := s.content.FindByStage(ctx, models.StagePlanning)
		if err != nil {
			return nil, err
		}
		add(items)

	case models.StagePregnant:
		// Window-less pregnancy content applies for the whole stage.
		items, err := s.content.FindByStageWindowless(ctx, models.StagePregnant)
		if err != nil {
			return nil, err
		}
		add(items)

		if start, ok := dday.PregnancyStart(profile.DueDate, profile.PregnancyStartDate); ok {
			week := dday.CurrentWeek(start, now)
			lo, hi := week, week
			if widened {
				// Widening extends forward only: pre-load near-future
				// content without resurfacing weeks already passed.
				hi = week + widenedWeekMargin
			}
			items, err := s.content.FindByStageWeekRange(ctx, models.StagePregnant, lo, hi)
			if err != nil {
				return nil, err
			}
			add(items)
		}
		if err := s.addWorkItems(ctx, profile, add); err != nil {
			return nil, err
		}

	case models.StagePostpartum, models.StageParenting:
		for _, stage := range []string{models.StagePostpartum, models.StageParenting} {
			items, err := s.content.FindByStageWindowless(ctx, stage)
			if err != nil {
				return nil, err
			}
			add(items)
		}

		weekCap := postpartumWeekCapBatch
		if widened {
			weekCap = postpartumWeekCapOnDemand
		}
		for _, child := range children {
			if child.BirthDate == nil {
				continue
			}
			ageWeeks := dday.AgeWeeks(*child.BirthDate, now)
			if ageWeeks >= 0 && ageWeeks <= weekCap {
				lo, hi := ageWeeks, ageWeeks
				if widened {
					hi = ageWeeks + widenedWeekMargin
				}
				items, err := s.content.FindByStageWeekRange(ctx, models.StagePostpartum, lo, hi)
				if err != nil {
					return nil, err
				}
				add(items)
			}

			ageMonths := dday.AgeMonths(*child.BirthDate, now)
			lo, hi := ageMonths, ageMonths
			if widened {
				hi = ageMonths + widenedMonthMargin
			}
			items, err := s.content.FindByStagesMonthRange(ctx, []string{models.StagePostpartum, models.StageParenting}, lo, hi)
			if err != nil {
				return nil, err
			}
			add(items)
		}
		if err := s.addWorkItems(ctx, profile, add); err != nil {
			return nil, err
		}
	}

	// Government support applies at every stage, region-scoped.
	gov, err := s.content.FindGovernmentSupport(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range gov {
		if regionEligible(item, profile) {
			add([]models.ContentItem{item})
		}
	}

	return matched, nil
}

func (s *MatcherService) addWorkItems(ctx context.Context, profile *models.Profile, add func([]models.ContentItem)) error {
	if !profile.IsWorking {
		return nil
	}
	items, err := s.content.FindWorkItems(ctx)
	if err != nil {
		return err
	}
	add(items)
	return nil
}

// regionEligible applies the government-support region union: nationwide
// items, items whose region filter equals the user's province, and the
// textual city fallback.
func regionEligible(item models.ContentItem, profile *models.Profile) bool {
	if item.RegionFilter == "" {
		return true
	}
	if item.RegionFilter == profile.RegionProvince {
		return true
	}
	return fallbackRegionMatch(item.Title, profile.RegionCity)
}

// fallbackRegionMatch is a deliberately loose heuristic: a content title
// mentioning the user's city counts as a region match. Isolated here so
// it can be replaced by a structured region_city comparison without
// touching the matcher.
func fallbackRegionMatch(title, city string) bool {
	if city == "" {
		return false
	}
	// Trim administrative suffixes like 구/시/군 so "강남구" matches "강남".
	trimmed := strings.TrimRight(city, "구시군")
	if trimmed == "" {
		trimmed = city
	}
	return strings.Contains(title, trimmed)
}
