package database

import (
	"context"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// Repositories groups every repository over one connection or transaction
type Repositories struct {
	Learners   *LearnerRepository
	Questions  *QuestionRepository
	Items      *ItemProgressRepository
	Categories *CategoryProgressRepository
	Sessions   *SessionRepository
	Badges     *BadgeRepository
	Stats      *StatsRepository
}

// NewRepositories binds all repositories to db, which may be a *sqlx.DB or a *sqlx.Tx
func NewRepositories(db sqlx.ExtContext) *Repositories {
	return &Repositories{
		Learners:   NewLearnerRepository(db),
		Questions:  NewQuestionRepository(db),
		Items:      NewItemProgressRepository(db),
		Categories: NewCategoryProgressRepository(db),
		Sessions:   NewSessionRepository(db),
		Badges:     NewBadgeRepository(db),
		Stats:      NewStatsRepository(db),
	}
}

// LoadProgress assembles a learner's aggregate with up to historyLimit recent sessions.
// Badges carry only their ID and time; Level is left for the caller to derive.
func (r *Repositories) LoadProgress(ctx context.Context, learnerID int64, historyLimit int) (models.LearnerProgress, error) {
	progress, err := r.Stats.Get(ctx, learnerID)
	if err != nil {
		return progress, err
	}

	if progress.ItemProgress, err = r.Items.GetByLearner(ctx, learnerID); err != nil {
		return progress, err
	}
	if progress.CategoryProgress, err = r.Categories.GetByLearner(ctx, learnerID); err != nil {
		return progress, err
	}
	if progress.RecentSessions, err = r.Sessions.GetRecent(ctx, learnerID, historyLimit); err != nil {
		return progress, err
	}

	badges, err := r.Badges.GetByLearner(ctx, learnerID)
	if err != nil {
		return progress, err
	}
	for _, b := range badges {
		progress.Badges[b.ID] = b
	}
	return progress, nil
}

// SaveProgress writes what changed between before and after.
// Sessions beyond historyLimit are deleted.
func (r *Repositories) SaveProgress(ctx context.Context, learnerID int64, before, after models.LearnerProgress, historyLimit int) error {
	for id, item := range after.ItemProgress {
		if prev, ok := before.ItemProgress[id]; ok && sameItem(prev, item) {
			continue
		}
		if err := r.Items.Upsert(ctx, learnerID, item); err != nil {
			return err
		}
	}

	for name, stats := range after.CategoryProgress {
		if prev, ok := before.CategoryProgress[name]; ok && prev == stats {
			continue
		}
		if err := r.Categories.Upsert(ctx, learnerID, name, stats); err != nil {
			return err
		}
	}

	known := make(map[string]bool, len(before.RecentSessions))
	for _, s := range before.RecentSessions {
		known[s.ID] = true
	}
	added := false
	for _, s := range after.RecentSessions {
		if known[s.ID] {
			continue
		}
		if err := r.Sessions.Create(ctx, learnerID, s); err != nil {
			return err
		}
		added = true
	}
	if added && historyLimit > 0 {
		if err := r.Sessions.Trim(ctx, learnerID, historyLimit); err != nil {
			return err
		}
	}

	for id, badge := range after.Badges {
		if _, ok := before.Badges[id]; ok {
			continue
		}
		if err := r.Badges.Award(ctx, learnerID, badge); err != nil {
			return err
		}
	}

	return r.Stats.Upsert(ctx, learnerID, after)
}

func sameItem(a, b models.ItemProgress) bool {
	if (a.LastAttemptAt == nil) != (b.LastAttemptAt == nil) {
		return false
	}
	if a.LastAttemptAt != nil && !a.LastAttemptAt.Equal(*b.LastAttemptAt) {
		return false
	}
	return a.ItemID == b.ItemID &&
		a.TotalAttempts == b.TotalAttempts &&
		a.CorrectAttempts == b.CorrectAttempts &&
		a.LastAnswerCorrect == b.LastAnswerCorrect &&
		a.NextReviewAt.Equal(b.NextReviewAt) &&
		a.EasinessFactor == b.EasinessFactor &&
		a.ConsecutiveCorrect == b.ConsecutiveCorrect
}
