package database

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type table struct {
	name string
	ddl  string
}

// {{id}} and {{ts}} are replaced per driver
var schema = []table{
	{"learners", `
		CREATE TABLE IF NOT EXISTS learners (
			id {{id}},
			chat_id BIGINT UNIQUE NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			daily_goal INTEGER NOT NULL DEFAULT 20,
			notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			last_notified_at {{ts}},
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"questions", `
		CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"item_progress", `
		CREATE TABLE IF NOT EXISTS item_progress (
			learner_id BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
			item_id TEXT NOT NULL,
			total_attempts INTEGER NOT NULL DEFAULT 0,
			correct_attempts INTEGER NOT NULL DEFAULT 0,
			last_attempt_at {{ts}},
			last_answer_correct BOOLEAN NOT NULL DEFAULT FALSE,
			next_review_at {{ts}} NOT NULL,
			easiness_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			consecutive_correct INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (learner_id, item_id)
		)`},
	{"category_progress", `
		CREATE TABLE IF NOT EXISTS category_progress (
			learner_id BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			attempted INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0,
			accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (learner_id, category)
		)`},
	{"study_sessions", `
		CREATE TABLE IF NOT EXISTS study_sessions (
			id TEXT PRIMARY KEY,
			learner_id BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
			started_at {{ts}} NOT NULL,
			ended_at {{ts}} NOT NULL,
			session_type TEXT NOT NULL,
			questions_total INTEGER NOT NULL DEFAULT 0,
			questions_correct INTEGER NOT NULL DEFAULT 0,
			accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			duration_minutes INTEGER NOT NULL DEFAULT 0
		)`},
	{"study_sessions_learner_idx", `
		CREATE INDEX IF NOT EXISTS study_sessions_learner_idx ON study_sessions (learner_id, started_at)`},
	{"learner_badges", `
		CREATE TABLE IF NOT EXISTS learner_badges (
			learner_id BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
			badge_id TEXT NOT NULL,
			earned_at {{ts}} NOT NULL,
			PRIMARY KEY (learner_id, badge_id)
		)`},
	{"learner_stats", `
		CREATE TABLE IF NOT EXISTS learner_stats (
			learner_id BIGINT PRIMARY KEY REFERENCES learners(id) ON DELETE CASCADE,
			total_questions_attempted INTEGER NOT NULL DEFAULT 0,
			total_correct_answers INTEGER NOT NULL DEFAULT 0,
			overall_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			streak_days INTEGER NOT NULL DEFAULT 0,
			last_study_date {{ts}},
			total_study_minutes INTEGER NOT NULL DEFAULT 0,
			total_points INTEGER NOT NULL DEFAULT 0,
			updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
}

func dialect(driver string) *strings.Replacer {
	if driver == DriverPostgres {
		return strings.NewReplacer("{{id}}", "BIGSERIAL PRIMARY KEY", "{{ts}}", "TIMESTAMPTZ")
	}
	return strings.NewReplacer("{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{ts}}", "TIMESTAMP")
}

// Migrate creates the tables that do not exist yet
func Migrate(ctx context.Context, db *sqlx.DB) error {
	r := dialect(db.DriverName())
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(t.ddl)); err != nil {
			return errors.Wrapf(err, "failed to create %s", t.name)
		}
	}
	return nil
}
