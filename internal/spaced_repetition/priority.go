package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/civicsbot/pkg/models"
)

const day = 24 * time.Hour

// Priority returns the urgency score of one item at now.
// Overdue days dominate, unseen items get a boost, then struggle and difficulty.
func Priority(progress models.ItemProgress, now time.Time) float64 {
	daysOverdue := math.Max(0, float64(now.Sub(progress.NextReviewAt))/float64(day))

	score := daysOverdue * 100
	if !progress.Attempted() {
		score += 50
	}
	score += float64(5-progress.ConsecutiveCorrect) * 10
	score += (3 - math.Min(progress.EasinessFactor, 3)) * 5
	return score
}

type rankedItem struct {
	id    string
	score float64
}

// Rank orders every item by descending priority. Equal scores are ordered by item id.
func Rank(all map[string]models.ItemProgress, now time.Time) []string {
	items := make([]rankedItem, 0, len(all))
	for id, p := range all {
		items = append(items, rankedItem{id: id, score: Priority(p, now)})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].id < items[j].id
	})

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.id
	}
	return ids
}

// DueItems returns attempted items whose review date has passed, in rank order.
// Items never rated are new, not due.
func DueItems(all map[string]models.ItemProgress, now time.Time) []string {
	var due []string
	for _, id := range Rank(all, now) {
		p := all[id]
		if p.Attempted() && p.IsDue(now) {
			due = append(due, id)
		}
	}
	return due
}

// WithUnseen returns a copy of all extended with default progress for ids never rated
func WithUnseen(all map[string]models.ItemProgress, itemIDs []string, now time.Time) map[string]models.ItemProgress {
	out := make(map[string]models.ItemProgress, len(all)+len(itemIDs))
	for id, p := range all {
		out[id] = p
	}
	for _, id := range itemIDs {
		if _, ok := out[id]; !ok {
			out[id] = models.NewItemProgress(id, now)
		}
	}
	return out
}
