package progress

import (
	"time"

	"github.com/example/civicsbot/internal/gamification"
	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
)

// AnswerResult describes what one graded answer changed
type AnswerResult struct {
	Item         models.ItemProgress
	Correct      bool
	FirstAttempt bool
	// Categories that reached mastery with this answer
	CompletedCategories []string
}

// RecordAnswer schedules itemID with rating and updates the category and overall totals.
// An empty category only skips the category statistics.
func RecordAnswer(progress models.LearnerProgress, itemID, category string, rating spaced_repetition.QualityResponse, now time.Time) (models.LearnerProgress, AnswerResult, error) {
	if itemID == "" {
		return progress, AnswerResult{}, errors.Wrap(models.ErrInvalidArgument, "empty item id")
	}

	previous, seen := progress.ItemProgress[itemID]
	item, err := spaced_repetition.ScheduleItem(progress.ItemProgress, itemID, rating, now)
	if err != nil {
		return progress, AnswerResult{}, err
	}

	out := progress.Clone()
	out.ItemProgress[itemID] = item

	correct := item.LastAnswerCorrect
	out.TotalQuestionsAttempted++
	if correct {
		out.TotalCorrectAnswers++
	}
	out.RecomputeAccuracy()

	result := AnswerResult{
		Item:         item,
		Correct:      correct,
		FirstAttempt: !seen || !previous.Attempted(),
	}

	if category != "" {
		out.CategoryProgress[category] = out.CategoryProgress[category].Record(correct)
		result.CompletedCategories = gamification.CompletedCategories(progress.CategoryProgress, out.CategoryProgress)
	}

	return out, result, nil
}
