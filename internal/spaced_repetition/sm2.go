package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
)

// SM2 implements a SuperMemo-2 variant for civics questions
type SM2 struct {
	// Ratings at or above this value count as a correct answer
	PassThreshold QualityResponse
	// Interval in days after the first correct answer
	FirstInterval int
	// Interval in days after the second consecutive correct answer
	SecondInterval int
	// Easiness penalty applied on a failed answer
	LapsePenalty float64
}

// NewSM2 creates an SM2 with the default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  QualityCorrectDifficult,
		FirstInterval:  1,
		SecondInterval: 6,
		LapsePenalty:   0.2,
	}
}

var defaultSM2 = NewSM2()

// QualityResponse is the 0-5 recall rating of an answer
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Valid reports whether q is inside the 0-5 scale
func (q QualityResponse) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// RatingFromAnswer maps a multiple-choice outcome onto the 0-5 scale.
// A correct but hesitant answer is rated as difficult.
func RatingFromAnswer(correct, hesitant bool) QualityResponse {
	switch {
	case correct && hesitant:
		return QualityCorrectDifficult
	case correct:
		return QualityCorrectHesitation
	default:
		return QualityIncorrect
	}
}

// Schedule rates an item with the default SM2 settings
func Schedule(progress models.ItemProgress, quality QualityResponse, now time.Time) (models.ItemProgress, error) {
	return defaultSM2.Process(progress, quality, now)
}

// ScheduleItem rates itemID from the progress map, creating default progress for unseen items.
// The map is not modified.
func ScheduleItem(all map[string]models.ItemProgress, itemID string, quality QualityResponse, now time.Time) (models.ItemProgress, error) {
	progress, ok := all[itemID]
	if !ok {
		progress = models.NewItemProgress(itemID, now)
	}
	return Schedule(progress, quality, now)
}

// Process applies one rating to progress and returns the updated copy
func (sm *SM2) Process(progress models.ItemProgress, quality QualityResponse, now time.Time) (models.ItemProgress, error) {
	if !quality.Valid() {
		return progress, errors.Wrapf(models.ErrInvalidArgument, "rating %d outside 0-5", quality)
	}

	ef := clampEasiness(progress.EasinessFactor)
	correct := quality >= sm.PassThreshold

	var interval int
	if correct {
		progress.ConsecutiveCorrect++
		switch progress.ConsecutiveCorrect {
		case 1:
			interval = sm.FirstInterval
		case 2:
			interval = sm.SecondInterval
		default:
			interval = int(math.Round(float64(progress.ConsecutiveCorrect-1) * ef))
		}

		q := float64(QualityPerfect - quality)
		progress.EasinessFactor = clampEasiness(ef + (0.1 - q*(0.08+q*0.02)))
		progress.CorrectAttempts++
	} else {
		progress.ConsecutiveCorrect = 0
		interval = sm.FirstInterval
		progress.EasinessFactor = math.Max(models.MinEasinessFactor, ef-sm.LapsePenalty)
	}

	progress.TotalAttempts++
	progress.LastAnswerCorrect = correct
	at := now
	progress.LastAttemptAt = &at
	progress.NextReviewAt = now.AddDate(0, 0, interval)

	return progress, nil
}

// IsMastered determines if a question is considered learned:
// at least 5 correct answers in a row and a review gap of 3 weeks or more
func IsMastered(progress models.ItemProgress) bool {
	if progress.ConsecutiveCorrect < 5 || progress.LastAttemptAt == nil {
		return false
	}
	return progress.NextReviewAt.Sub(*progress.LastAttemptAt) >= 21*24*time.Hour
}

// ItemRetention returns the percentage of correct answers for one item
func ItemRetention(all map[string]models.ItemProgress, itemID string) (float64, error) {
	progress, ok := all[itemID]
	if !ok {
		return 0, errors.Wrapf(models.ErrNotFound, "item %q", itemID)
	}
	if progress.TotalAttempts == 0 {
		return 0, nil
	}
	return float64(progress.CorrectAttempts) / float64(progress.TotalAttempts) * 100, nil
}

func clampEasiness(ef float64) float64 {
	if math.IsNaN(ef) {
		return models.DefaultEasinessFactor
	}
	return math.Min(models.MaxEasinessFactor, math.Max(models.MinEasinessFactor, ef))
}
