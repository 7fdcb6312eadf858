// Package progress folds graded answers and completed sessions into a learner's aggregate state.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
)

// NewSession builds a session record, deriving accuracy and whole minutes from its inputs
func NewSession(id string, sessionType models.SessionType, startedAt, endedAt time.Time, total, correct int) models.SessionRecord {
	s := models.SessionRecord{
		ID:               id,
		StartedAt:        startedAt,
		EndedAt:          endedAt,
		Type:             sessionType,
		QuestionsTotal:   total,
		QuestionsCorrect: correct,
	}
	if total > 0 {
		s.Accuracy = float64(correct) / float64(total) * 100
	}
	if endedAt.After(startedAt) {
		s.DurationMinutes = int(math.Round(endedAt.Sub(startedAt).Minutes()))
	}
	return s
}

// ValidateSession checks the invariants of a completed session
func ValidateSession(s models.SessionRecord) error {
	switch {
	case !s.Type.Valid():
		return errors.Wrapf(models.ErrInvalidArgument, "unknown session type %q", s.Type)
	case s.QuestionsTotal < 0 || s.QuestionsCorrect < 0:
		return errors.Wrapf(models.ErrInvalidArgument, "negative question count %d/%d", s.QuestionsCorrect, s.QuestionsTotal)
	case s.QuestionsCorrect > s.QuestionsTotal:
		return errors.Wrapf(models.ErrInvalidArgument, "%d correct out of %d questions", s.QuestionsCorrect, s.QuestionsTotal)
	case s.EndedAt.Before(s.StartedAt):
		return errors.Wrapf(models.ErrInvalidArgument, "session ends before it starts")
	case s.DurationMinutes < 0:
		return errors.Wrapf(models.ErrInvalidArgument, "negative duration %d", s.DurationMinutes)
	case s.Accuracy < 0 || s.Accuracy > 100 || math.IsNaN(s.Accuracy):
		return errors.Wrapf(models.ErrInvalidArgument, "accuracy %v outside 0-100", s.Accuracy)
	}
	return nil
}

// ApplySession folds a completed session into progress and returns the updated copy.
//
// The session joins the most-recent-first history, which keeps at most limit entries
// (models.DefaultHistoryLimit when limit < 1). Question totals are not touched here:
// they are counted per answer by RecordAnswer. The streak moves by calendar day in loc:
// the same day keeps it, the next day extends it, a later day restarts it at 1 and a
// session older than the last study date leaves it alone.
func ApplySession(progress models.LearnerProgress, session models.SessionRecord, limit int, loc *time.Location) (models.LearnerProgress, error) {
	if err := ValidateSession(session); err != nil {
		return progress, err
	}
	if limit < 1 {
		limit = models.DefaultHistoryLimit
	}
	loc = locationOrUTC(loc)

	out := progress.Clone()

	out.RecentSessions = append(out.RecentSessions, session)
	sort.SliceStable(out.RecentSessions, func(i, j int) bool {
		return out.RecentSessions[i].StartedAt.After(out.RecentSessions[j].StartedAt)
	})
	if len(out.RecentSessions) > limit {
		out.RecentSessions = out.RecentSessions[:limit]
	}

	out.RecomputeAccuracy()
	out.TotalStudyMinutes += session.DurationMinutes

	studiedAt := session.StartedAt
	if out.LastStudyDate == nil {
		out.StreakDays = 1
		out.LastStudyDate = &studiedAt
		return out, nil
	}

	switch gap := daysBetween(*out.LastStudyDate, studiedAt, loc); {
	case gap < 0:
		return out, nil
	case gap == 0:
		if out.StreakDays < 1 {
			out.StreakDays = 1
		}
	case gap == 1:
		out.StreakDays++
	default:
		out.StreakDays = 1
	}
	if studiedAt.After(*out.LastStudyDate) {
		out.LastStudyDate = &studiedAt
	}

	return out, nil
}

// IsFirstSessionOfDay reports whether a session at startedAt would be the learner's first on that day in loc
func IsFirstSessionOfDay(progress models.LearnerProgress, startedAt time.Time, loc *time.Location) bool {
	if progress.LastStudyDate == nil {
		return true
	}
	return daysBetween(*progress.LastStudyDate, startedAt, locationOrUTC(loc)) > 0
}
