package progress

import (
	"sort"

	"github.com/example/civicsbot/pkg/models"
)

// Trend is the direction of recent accuracy
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

const (
	trendWindow    = 5
	trendThreshold = 5.0
)

// SessionStats summarizes a session history
type SessionStats struct {
	Count           int                `json:"count"`
	AverageAccuracy float64            `json:"average_accuracy"`
	TotalMinutes    int                `json:"total_minutes"`
	FavoriteType    models.SessionType `json:"favorite_type,omitempty"`
	Trend           Trend              `json:"trend"`
}

// Summarize computes history statistics.
// Accuracy only counts sessions with questions. The trend compares the mean accuracy of
// the latest sessions (up to 5) with the same number of sessions before them.
func Summarize(sessions []models.SessionRecord) SessionStats {
	stats := SessionStats{Count: len(sessions), Trend: TrendStable}

	graded := make([]models.SessionRecord, 0, len(sessions))
	counts := make(map[models.SessionType]int)
	for _, s := range sessions {
		stats.TotalMinutes += s.DurationMinutes
		counts[s.Type]++
		if s.QuestionsTotal > 0 {
			graded = append(graded, s)
		}
	}

	best := 0
	for _, t := range models.SessionTypes {
		if counts[t] > best {
			best = counts[t]
			stats.FavoriteType = t
		}
	}

	if len(graded) == 0 {
		return stats
	}
	stats.AverageAccuracy = meanAccuracy(graded)

	sort.SliceStable(graded, func(i, j int) bool {
		return graded[i].StartedAt.After(graded[j].StartedAt)
	})
	window := len(graded) / 2
	if window > trendWindow {
		window = trendWindow
	}
	if window == 0 {
		return stats
	}

	delta := meanAccuracy(graded[:window]) - meanAccuracy(graded[window:2*window])
	switch {
	case delta >= trendThreshold:
		stats.Trend = TrendImproving
	case delta <= -trendThreshold:
		stats.Trend = TrendDeclining
	}
	return stats
}

func meanAccuracy(sessions []models.SessionRecord) float64 {
	sum := 0.0
	for _, s := range sessions {
		sum += s.Accuracy
	}
	return sum / float64(len(sessions))
}
