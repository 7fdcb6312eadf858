package database

import (
	"context"
	"database/sql"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const questionColumns = "id, category, prompt, answer, explanation, created_at, updated_at"

// QuestionRepository handles database operations for the question bank
type QuestionRepository struct {
	db sqlx.ExtContext
}

// NewQuestionRepository creates a new repository instance
func NewQuestionRepository(db sqlx.ExtContext) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Upsert inserts a question or replaces the text of an existing one
func (r *QuestionRepository) Upsert(ctx context.Context, q *models.Question) error {
	query := r.db.Rebind(`
		INSERT INTO questions (id, category, prompt, answer, explanation)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category = excluded.category,
			prompt = excluded.prompt,
			answer = excluded.answer,
			explanation = excluded.explanation,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, q.ID, q.Category, q.Prompt, q.Answer, q.Explanation); err != nil {
		return errors.Wrapf(err, "failed to save question %s", q.ID)
	}
	return nil
}

// GetByID returns a question by ID
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	query := r.db.Rebind("SELECT " + questionColumns + " FROM questions WHERE id = ?")
	if err := sqlx.GetContext(ctx, r.db, &q, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(models.ErrNotFound, "question %s", id)
		}
		return nil, errors.Wrap(err, "failed to get question")
	}
	return &q, nil
}

// GetAll returns the whole bank ordered by ID
func (r *QuestionRepository) GetAll(ctx context.Context) ([]models.Question, error) {
	var questions []models.Question
	if err := sqlx.SelectContext(ctx, r.db, &questions, "SELECT "+questionColumns+" FROM questions ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to get questions")
	}
	return questions, nil
}

// GetByIDs returns the questions with the given IDs, in the order requested.
// Unknown IDs are skipped.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT "+questionColumns+" FROM questions WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build question query")
	}

	var found []models.Question
	if err := sqlx.SelectContext(ctx, r.db, &found, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to get questions by IDs")
	}

	byID := make(map[string]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]models.Question, 0, len(found))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// Categories maps every question ID to its category
func (r *QuestionRepository) Categories(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ID       string `db:"id"`
		Category string `db:"category"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, "SELECT id, category FROM questions"); err != nil {
		return nil, errors.Wrap(err, "failed to get question categories")
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Category
	}
	return out, nil
}

// Count returns the size of the bank
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, "SELECT COUNT(*) FROM questions"); err != nil {
		return 0, errors.Wrap(err, "failed to count questions")
	}
	return n, nil
}
