package database

import (
	"context"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SessionRepository stores completed study sessions
type SessionRepository struct {
	db sqlx.ExtContext
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db sqlx.ExtContext) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session. Sessions are immutable, so an existing ID is left untouched.
func (r *SessionRepository) Create(ctx context.Context, learnerID int64, s models.SessionRecord) error {
	query := r.db.Rebind(`
		INSERT INTO study_sessions (
			id, learner_id, started_at, ended_at, session_type,
			questions_total, questions_correct, accuracy, duration_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		learnerID,
		utc(s.StartedAt),
		utc(s.EndedAt),
		string(s.Type),
		s.QuestionsTotal,
		s.QuestionsCorrect,
		s.Accuracy,
		s.DurationMinutes,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save session %s", s.ID)
	}
	return nil
}

// GetRecent returns up to limit sessions, most recent first
func (r *SessionRepository) GetRecent(ctx context.Context, learnerID int64, limit int) ([]models.SessionRecord, error) {
	var sessions []models.SessionRecord
	query := r.db.Rebind(`
		SELECT id, started_at, ended_at, session_type, questions_total, questions_correct,
			accuracy, duration_minutes
		FROM study_sessions
		WHERE learner_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`)
	if err := sqlx.SelectContext(ctx, r.db, &sessions, query, learnerID, limit); err != nil {
		return nil, errors.Wrap(err, "failed to get sessions")
	}
	return sessions, nil
}

// Trim deletes everything but the keep most recent sessions of a learner
func (r *SessionRepository) Trim(ctx context.Context, learnerID int64, keep int) error {
	query := r.db.Rebind(`
		DELETE FROM study_sessions
		WHERE learner_id = ? AND id NOT IN (
			SELECT id FROM study_sessions
			WHERE learner_id = ?
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		)
	`)
	if _, err := r.db.ExecContext(ctx, query, learnerID, learnerID, keep); err != nil {
		return errors.Wrap(err, "failed to trim sessions")
	}
	return nil
}
