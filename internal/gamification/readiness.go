package gamification

import (
	"math"
	"sort"

	"github.com/example/civicsbot/pkg/models"
)

// Readiness weights
const (
	retentionWeight = 0.7
	coverageWeight  = 0.3
)

// PassProbability estimates exam readiness (0..100) from average retention
// over attempted items and the share of the bank attempted
func PassProbability(all map[string]models.ItemProgress, totalItems int) int {
	if totalItems <= 0 {
		return 0
	}

	// summed in id order so the float result does not depend on map iteration
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	attempted := 0
	retentionSum := 0.0
	for _, id := range ids {
		p := all[id]
		if p.TotalAttempts == 0 {
			continue
		}
		attempted++
		retentionSum += float64(p.CorrectAttempts) / float64(p.TotalAttempts) * 100
	}
	if attempted == 0 {
		return 0
	}

	averageRetention := retentionSum / float64(attempted)
	coverage := math.Min(1, float64(attempted)/float64(totalItems))
	probability := (averageRetention/100*retentionWeight + coverage*coverageWeight) * 100

	return int(math.Min(100, math.Max(0, math.Round(probability))))
}

// CompletedCategories returns categories that meet the mastery bar in after but not in before
func CompletedCategories(before, after map[string]models.CategoryStats) []string {
	var done []string
	for name, stats := range after {
		if !categoryMastered(stats) {
			continue
		}
		if prev, ok := before[name]; ok && categoryMastered(prev) {
			continue
		}
		done = append(done, name)
	}
	sort.Strings(done)
	return done
}

func categoryMastered(stats models.CategoryStats) bool {
	return stats.Attempted >= CategoryMasterMinAttempts && stats.Accuracy >= CategoryMasterAccuracy
}
