package database

import (
	"context"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// BadgeRepository stores earned badges. Only the ID and time are persisted;
// names and icons come from the badge catalog.
type BadgeRepository struct {
	db sqlx.ExtContext
}

// NewBadgeRepository creates a new repository instance
func NewBadgeRepository(db sqlx.ExtContext) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// GetByLearner returns the earned badges ordered by time
func (r *BadgeRepository) GetByLearner(ctx context.Context, learnerID int64) ([]models.Badge, error) {
	var badges []models.Badge
	query := r.db.Rebind("SELECT badge_id, earned_at FROM learner_badges WHERE learner_id = ? ORDER BY earned_at, badge_id")
	if err := sqlx.SelectContext(ctx, r.db, &badges, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "failed to get badges")
	}
	return badges, nil
}

// Award stores a badge. A badge that is already earned keeps its original time.
func (r *BadgeRepository) Award(ctx context.Context, learnerID int64, badge models.Badge) error {
	query := r.db.Rebind(`
		INSERT INTO learner_badges (learner_id, badge_id, earned_at)
		VALUES (?, ?, ?)
		ON CONFLICT (learner_id, badge_id) DO NOTHING
	`)
	if _, err := r.db.ExecContext(ctx, query, learnerID, string(badge.ID), utc(badge.EarnedAt)); err != nil {
		return errors.Wrapf(err, "failed to award badge %s", badge.ID)
	}
	return nil
}
