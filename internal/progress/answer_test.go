package progress

import (
	"testing"

	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnswer(t *testing.T) {
	now := date(2024, 3, 10, 9)
	progress := models.NewLearnerProgress()

	got, result, err := RecordAnswer(progress, "q1", "government", spaced_repetition.QualityPerfect, now)
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.True(t, result.FirstAttempt)
	assert.Equal(t, 1, result.Item.TotalAttempts)
	assert.Equal(t, now.AddDate(0, 0, 1), result.Item.NextReviewAt)
	assert.Equal(t, 1, got.TotalQuestionsAttempted)
	assert.Equal(t, 1, got.TotalCorrectAnswers)
	assert.Equal(t, 100.0, got.OverallAccuracy)
	assert.Equal(t, models.CategoryStats{Attempted: 1, Correct: 1, Accuracy: 1}, got.CategoryProgress["government"])

	// input untouched
	assert.Empty(t, progress.ItemProgress)
	assert.Zero(t, progress.TotalQuestionsAttempted)

	got, result, err = RecordAnswer(got, "q1", "government", spaced_repetition.QualityIncorrect, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.False(t, result.FirstAttempt)
	assert.Equal(t, 50.0, got.OverallAccuracy)
	assert.Equal(t, 0.5, got.CategoryProgress["government"].Accuracy)
	assert.Equal(t, 2, got.ItemProgress["q1"].TotalAttempts)
}

func TestRecordAnswer_CompletesCategory(t *testing.T) {
	now := date(2024, 3, 10, 9)
	progress := models.NewLearnerProgress()
	progress.CategoryProgress["symbols"] = models.CategoryStats{Attempted: 9, Correct: 8, Accuracy: 8.0 / 9}

	_, result, err := RecordAnswer(progress, "q7", "symbols", spaced_repetition.QualityCorrectHesitation, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"symbols"}, result.CompletedCategories)
}

func TestRecordAnswer_Invalid(t *testing.T) {
	now := date(2024, 3, 10, 9)

	_, _, err := RecordAnswer(models.NewLearnerProgress(), "", "symbols", spaced_repetition.QualityPerfect, now)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, _, err = RecordAnswer(models.NewLearnerProgress(), "q1", "symbols", 9, now)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
