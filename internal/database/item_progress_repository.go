package database

import (
	"context"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ItemProgressRepository stores per-question review state
type ItemProgressRepository struct {
	db sqlx.ExtContext
}

// NewItemProgressRepository creates a new repository instance
func NewItemProgressRepository(db sqlx.ExtContext) *ItemProgressRepository {
	return &ItemProgressRepository{db: db}
}

// GetByLearner returns every rated item of a learner keyed by item ID
func (r *ItemProgressRepository) GetByLearner(ctx context.Context, learnerID int64) (map[string]models.ItemProgress, error) {
	var rows []models.ItemProgress
	query := r.db.Rebind(`
		SELECT item_id, total_attempts, correct_attempts, last_attempt_at, last_answer_correct,
			next_review_at, easiness_factor, consecutive_correct
		FROM item_progress
		WHERE learner_id = ?
	`)
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "failed to get item progress")
	}

	out := make(map[string]models.ItemProgress, len(rows))
	for _, p := range rows {
		out[p.ItemID] = p
	}
	return out, nil
}

// Upsert stores the review state of one item
func (r *ItemProgressRepository) Upsert(ctx context.Context, learnerID int64, p models.ItemProgress) error {
	query := r.db.Rebind(`
		INSERT INTO item_progress (
			learner_id, item_id, total_attempts, correct_attempts, last_attempt_at,
			last_answer_correct, next_review_at, easiness_factor, consecutive_correct
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			total_attempts = excluded.total_attempts,
			correct_attempts = excluded.correct_attempts,
			last_attempt_at = excluded.last_attempt_at,
			last_answer_correct = excluded.last_answer_correct,
			next_review_at = excluded.next_review_at,
			easiness_factor = excluded.easiness_factor,
			consecutive_correct = excluded.consecutive_correct
	`)
	_, err := r.db.ExecContext(ctx, query,
		learnerID,
		p.ItemID,
		p.TotalAttempts,
		p.CorrectAttempts,
		utcPtr(p.LastAttemptAt),
		p.LastAnswerCorrect,
		utc(p.NextReviewAt),
		p.EasinessFactor,
		p.ConsecutiveCorrect,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save progress of item %s", p.ItemID)
	}
	return nil
}

// CountDue counts rated items whose review date has passed
func (r *ItemProgressRepository) CountDue(ctx context.Context, learnerID int64, now time.Time) (int, error) {
	var n int
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM item_progress
		WHERE learner_id = ? AND total_attempts > 0 AND next_review_at <= ?
	`)
	if err := sqlx.GetContext(ctx, r.db, &n, query, learnerID, utc(now)); err != nil {
		return 0, errors.Wrap(err, "failed to count due items")
	}
	return n, nil
}
