package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
)

// Budget shares of the daily goal, in tenths
const (
	DueShare    = 6
	NewShare    = 2
	ReviewShare = 2
)

// Weak category thresholds
const (
	WeakMinAttempts = 5
	WeakAccuracy    = 0.7
)

// PlanInput holds everything the plan generator reads
type PlanInput struct {
	Progress   map[string]models.ItemProgress
	Categories map[string]models.CategoryStats
	DailyGoal  int
	Now        time.Time
	// ItemCategories maps item ids to categories. When set, the weak-area
	// bucket only draws from weak categories.
	ItemCategories map[string]string
}

// StudyPlan is today's recommended queue split into buckets
type StudyPlan struct {
	DueToday         []string `json:"due_today"`
	NewItems         []string `json:"new_items"`
	WeakAreaReview   []string `json:"weak_area_review"`
	WeakCategories   []string `json:"weak_categories"`
	TotalRecommended int      `json:"total_recommended"`
}

// Items returns every planned id: due first, then new, then weak-area review
func (p StudyPlan) Items() []string {
	out := make([]string, 0, p.TotalRecommended)
	out = append(out, p.DueToday...)
	out = append(out, p.NewItems...)
	return append(out, p.WeakAreaReview...)
}

// Slots splits a daily goal into due, new and review slot counts, rounding each share up
func Slots(dailyGoal int) (due, fresh, review int) {
	return ceilTenths(DueShare * dailyGoal), ceilTenths(NewShare * dailyGoal), ceilTenths(ReviewShare * dailyGoal)
}

func ceilTenths(n int) int {
	return (n + 9) / 10
}

// WeakCategories returns categories with enough attempts and low accuracy, worst first.
// Equal accuracies are ordered by name.
func WeakCategories(categories map[string]models.CategoryStats) []string {
	var weak []string
	for name, stats := range categories {
		if stats.Attempted >= WeakMinAttempts && stats.Accuracy < WeakAccuracy {
			weak = append(weak, name)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		ai, aj := categories[weak[i]].Accuracy, categories[weak[j]].Accuracy
		if ai != aj {
			return ai < aj
		}
		return weak[i] < weak[j]
	})
	return weak
}

// Plan builds today's study plan
func Plan(input PlanInput) (StudyPlan, error) {
	if input.DailyGoal < 1 {
		return StudyPlan{}, errors.Wrapf(models.ErrInvalidArgument, "daily goal %d must be at least 1", input.DailyGoal)
	}

	dueCount, newCount, reviewCount := Slots(input.DailyGoal)
	ranked := Rank(input.Progress, input.Now)
	selected := make(map[string]bool)

	plan := StudyPlan{
		DueToday:       []string{},
		NewItems:       []string{},
		WeakAreaReview: []string{},
		WeakCategories: WeakCategories(input.Categories),
	}

	for _, id := range ranked {
		if len(plan.DueToday) >= dueCount {
			break
		}
		p := input.Progress[id]
		if p.Attempted() && p.IsDue(input.Now) {
			plan.DueToday = append(plan.DueToday, id)
			selected[id] = true
		}
	}

	for _, id := range ranked {
		if len(plan.NewItems) >= newCount {
			break
		}
		if !selected[id] && !input.Progress[id].Attempted() {
			plan.NewItems = append(plan.NewItems, id)
			selected[id] = true
		}
	}

	if len(plan.WeakCategories) > 0 {
		plan.WeakAreaReview = weakAreaItems(ranked, selected, plan.WeakCategories, input.ItemCategories, reviewCount)
	}

	plan.TotalRecommended = len(plan.DueToday) + len(plan.NewItems) + len(plan.WeakAreaReview)
	return plan, nil
}

func weakAreaItems(ranked []string, selected map[string]bool, weak []string, itemCategories map[string]string, limit int) []string {
	out := []string{}
	if itemCategories == nil {
		for _, id := range ranked {
			if len(out) >= limit {
				break
			}
			if !selected[id] {
				out = append(out, id)
				selected[id] = true
			}
		}
		return out
	}

	// worst category first, priority order inside each category
	for _, category := range weak {
		for _, id := range ranked {
			if len(out) >= limit {
				return out
			}
			if !selected[id] && itemCategories[id] == category {
				out = append(out, id)
				selected[id] = true
			}
		}
	}
	return out
}
