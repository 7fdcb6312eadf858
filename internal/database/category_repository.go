package database

import (
	"context"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// CategoryProgressRepository stores per-category answer statistics
type CategoryProgressRepository struct {
	db sqlx.ExtContext
}

// NewCategoryProgressRepository creates a new repository instance
func NewCategoryProgressRepository(db sqlx.ExtContext) *CategoryProgressRepository {
	return &CategoryProgressRepository{db: db}
}

type categoryRow struct {
	Category string `db:"category"`
	models.CategoryStats
}

// GetByLearner returns a learner's statistics keyed by category
func (r *CategoryProgressRepository) GetByLearner(ctx context.Context, learnerID int64) (map[string]models.CategoryStats, error) {
	var rows []categoryRow
	query := r.db.Rebind("SELECT category, attempted, correct, accuracy FROM category_progress WHERE learner_id = ?")
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "failed to get category progress")
	}

	out := make(map[string]models.CategoryStats, len(rows))
	for _, row := range rows {
		out[row.Category] = row.CategoryStats
	}
	return out, nil
}

// Upsert stores the statistics of one category
func (r *CategoryProgressRepository) Upsert(ctx context.Context, learnerID int64, category string, stats models.CategoryStats) error {
	query := r.db.Rebind(`
		INSERT INTO category_progress (learner_id, category, attempted, correct, accuracy)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, category) DO UPDATE SET
			attempted = excluded.attempted,
			correct = excluded.correct,
			accuracy = excluded.accuracy
	`)
	if _, err := r.db.ExecContext(ctx, query, learnerID, category, stats.Attempted, stats.Correct, stats.Accuracy); err != nil {
		return errors.Wrapf(err, "failed to save category %s", category)
	}
	return nil
}
