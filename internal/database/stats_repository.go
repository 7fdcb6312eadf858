package database

import (
	"context"
	"database/sql"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// StatsRepository stores the scalar totals of a learner's progress
type StatsRepository struct {
	db sqlx.ExtContext
}

// NewStatsRepository creates a new repository instance
func NewStatsRepository(db sqlx.ExtContext) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get loads the totals into a fresh progress value. A learner without a row gets empty totals.
func (r *StatsRepository) Get(ctx context.Context, learnerID int64) (models.LearnerProgress, error) {
	progress := models.NewLearnerProgress()
	query := r.db.Rebind(`
		SELECT total_questions_attempted, total_correct_answers, overall_accuracy, streak_days,
			last_study_date, total_study_minutes, total_points
		FROM learner_stats
		WHERE learner_id = ?
	`)
	err := sqlx.GetContext(ctx, r.db, &progress, query, learnerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return progress, errors.Wrap(err, "failed to get learner stats")
	}
	return progress, nil
}

// Upsert stores the totals of progress
func (r *StatsRepository) Upsert(ctx context.Context, learnerID int64, p models.LearnerProgress) error {
	query := r.db.Rebind(`
		INSERT INTO learner_stats (
			learner_id, total_questions_attempted, total_correct_answers, overall_accuracy,
			streak_days, last_study_date, total_study_minutes, total_points
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id) DO UPDATE SET
			total_questions_attempted = excluded.total_questions_attempted,
			total_correct_answers = excluded.total_correct_answers,
			overall_accuracy = excluded.overall_accuracy,
			streak_days = excluded.streak_days,
			last_study_date = excluded.last_study_date,
			total_study_minutes = excluded.total_study_minutes,
			total_points = excluded.total_points,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err := r.db.ExecContext(ctx, query,
		learnerID,
		p.TotalQuestionsAttempted,
		p.TotalCorrectAnswers,
		p.OverallAccuracy,
		p.StreakDays,
		utcPtr(p.LastStudyDate),
		p.TotalStudyMinutes,
		p.TotalPoints,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save learner stats")
	}
	return nil
}
