package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const learnerColumns = `id, chat_id, username, first_name, daily_goal, notifications_enabled,
	notification_hour, last_notified_at, created_at, updated_at`

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db sqlx.ExtContext
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db sqlx.ExtContext) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// GetByID returns a learner by ID
func (r *LearnerRepository) GetByID(ctx context.Context, id int64) (*models.Learner, error) {
	var learner models.Learner
	query := r.db.Rebind("SELECT " + learnerColumns + " FROM learners WHERE id = ?")
	if err := sqlx.GetContext(ctx, r.db, &learner, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(models.ErrNotFound, "learner %d", id)
		}
		return nil, errors.Wrap(err, "failed to get learner by ID")
	}
	return &learner, nil
}

// GetByChatID returns a learner by Telegram chat ID
func (r *LearnerRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Learner, error) {
	var learner models.Learner
	query := r.db.Rebind("SELECT " + learnerColumns + " FROM learners WHERE chat_id = ?")
	if err := sqlx.GetContext(ctx, r.db, &learner, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(models.ErrNotFound, "learner with chat %d", chatID)
		}
		return nil, errors.Wrap(err, "failed to get learner by chat ID")
	}
	return &learner, nil
}

// Register creates the learner for chatID or refreshes its names, and returns the stored row.
// daily_goal, notifications_enabled and notification_hour apply to new learners only.
func (r *LearnerRepository) Register(ctx context.Context, learner *models.Learner) (*models.Learner, error) {
	query := r.db.Rebind(`
		INSERT INTO learners (chat_id, username, first_name, daily_goal, notifications_enabled, notification_hour)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err := r.db.ExecContext(ctx, query,
		learner.ChatID,
		learner.Username,
		learner.FirstName,
		learner.DailyGoal,
		learner.NotificationsEnabled,
		learner.NotificationHour,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register learner")
	}
	return r.GetByChatID(ctx, learner.ChatID)
}

// UpdateSettings stores the learner's goal and reminder preferences
func (r *LearnerRepository) UpdateSettings(ctx context.Context, learner *models.Learner) error {
	query := r.db.Rebind(`
		UPDATE learners SET
			daily_goal = ?,
			notifications_enabled = ?,
			notification_hour = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query,
		learner.DailyGoal,
		learner.NotificationsEnabled,
		learner.NotificationHour,
		learner.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update learner settings")
	}
	return requireRow(res, "learner %d", learner.ID)
}

// GetWithNotifications returns learners that want reminders
func (r *LearnerRepository) GetWithNotifications(ctx context.Context) ([]models.Learner, error) {
	var learners []models.Learner
	query := r.db.Rebind("SELECT " + learnerColumns + " FROM learners WHERE notifications_enabled = ? ORDER BY id")
	if err := sqlx.SelectContext(ctx, r.db, &learners, query, true); err != nil {
		return nil, errors.Wrap(err, "failed to get learners with notifications")
	}
	return learners, nil
}

// GetAll returns all learners
func (r *LearnerRepository) GetAll(ctx context.Context) ([]models.Learner, error) {
	var learners []models.Learner
	if err := sqlx.SelectContext(ctx, r.db, &learners, "SELECT "+learnerColumns+" FROM learners ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to get learners")
	}
	return learners, nil
}

// MarkNotified records when the last reminder was sent
func (r *LearnerRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	query := r.db.Rebind("UPDATE learners SET last_notified_at = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, utc(at), id)
	if err != nil {
		return errors.Wrap(err, "failed to mark learner notified")
	}
	return requireRow(res, "learner %d", id)
}

func requireRow(res sql.Result, format string, args ...interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(models.ErrNotFound, format, args...)
	}
	return nil
}
