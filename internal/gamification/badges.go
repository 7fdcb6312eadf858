package gamification

import (
	"sort"
	"time"

	"github.com/example/civicsbot/pkg/models"
)

// Catalog badge ids
const (
	BadgeFirstSteps     models.BadgeID = "first_steps"
	BadgeStreak3        models.BadgeID = "streak_3"
	BadgeStreak7        models.BadgeID = "streak_7"
	BadgeStreak30       models.BadgeID = "streak_30"
	BadgeStreak100      models.BadgeID = "streak_100"
	BadgeAccuracy80     models.BadgeID = "accuracy_80"
	BadgeAccuracy90     models.BadgeID = "accuracy_90"
	BadgeQuestions50    models.BadgeID = "questions_50"
	BadgeQuestions100   models.BadgeID = "questions_100"
	BadgeQuestions500   models.BadgeID = "questions_500"
	BadgeCategoryMaster models.BadgeID = "category_master"
	BadgeEarlyBird      models.BadgeID = "early_bird"
	BadgeNightOwl       models.BadgeID = "night_owl"
	BadgeSpeedDemon     models.BadgeID = "speed_demon"
	BadgeMarathon       models.BadgeID = "marathon"
	BadgeQuizAce        models.BadgeID = "quiz_ace"
)

// Badge condition parameters
const (
	CategoryMasterMinAttempts = 10
	CategoryMasterAccuracy    = 0.8
	TimeOfDayMinSessions      = 5
	SpeedDemonMinQuestions    = 20
	SpeedDemonMaxDuration     = 5 * time.Minute
	MarathonMinMinutes        = 60
	QuizAceSessions           = 3
	QuizAceAccuracy           = 85.0
)

// BadgeCondition decides whether a badge is earned.
// sessions are ordered most recent first; loc is used for time-of-day checks.
type BadgeCondition func(progress models.LearnerProgress, sessions []models.SessionRecord, loc *time.Location) bool

// BadgeDefinition is one catalog entry
type BadgeDefinition struct {
	ID          models.BadgeID
	Name        string
	Description string
	Icon        string
	Type        models.BadgeType
	Points      int
	Earned      BadgeCondition
}

// Badge returns the earned badge for this definition
func (d BadgeDefinition) Badge(earnedAt time.Time) models.Badge {
	return models.Badge{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		Type:        d.Type,
		Points:      d.Points,
		EarnedAt:    earnedAt,
	}
}

// Catalog lists every badge in evaluation order
var Catalog = []BadgeDefinition{
	{
		ID: BadgeFirstSteps, Name: "First Steps", Icon: "👣", Type: models.BadgeMilestone, Points: 10,
		Description: "Answer your first question",
		Earned:      attemptedAtLeast(1),
	},
	{
		ID: BadgeStreak3, Name: "Getting Started", Icon: "🔥", Type: models.BadgeStreak, Points: 25,
		Description: "Study 3 days in a row",
		Earned:      streakAtLeast(3),
	},
	{
		ID: BadgeStreak7, Name: "Week Warrior", Icon: "📅", Type: models.BadgeStreak, Points: 50,
		Description: "Study 7 days in a row",
		Earned:      streakAtLeast(7),
	},
	{
		ID: BadgeStreak30, Name: "Monthly Master", Icon: "🗓️", Type: models.BadgeStreak, Points: 200,
		Description: "Study 30 days in a row",
		Earned:      streakAtLeast(30),
	},
	{
		ID: BadgeStreak100, Name: "Century Scholar", Icon: "💯", Type: models.BadgeStreak, Points: 500,
		Description: "Study 100 days in a row",
		Earned:      streakAtLeast(100),
	},
	{
		ID: BadgeAccuracy80, Name: "Solid Foundation", Icon: "🎯", Type: models.BadgeMastery, Points: 75,
		Description: "Keep 80% accuracy over at least 25 questions",
		Earned:      accuracyAtLeast(80, 25),
	},
	{
		ID: BadgeAccuracy90, Name: "Sharp Mind", Icon: "🧠", Type: models.BadgeMastery, Points: 150,
		Description: "Keep 90% accuracy over at least 50 questions",
		Earned:      accuracyAtLeast(90, 50),
	},
	{
		ID: BadgeQuestions50, Name: "Curious Citizen", Icon: "📘", Type: models.BadgeMilestone, Points: 50,
		Description: "Answer 50 questions",
		Earned:      attemptedAtLeast(50),
	},
	{
		ID: BadgeQuestions100, Name: "Dedicated Learner", Icon: "📚", Type: models.BadgeMilestone, Points: 100,
		Description: "Answer 100 questions",
		Earned:      attemptedAtLeast(100),
	},
	{
		ID: BadgeQuestions500, Name: "Question Machine", Icon: "🏛️", Type: models.BadgeMilestone, Points: 300,
		Description: "Answer 500 questions",
		Earned:      attemptedAtLeast(500),
	},
	{
		ID: BadgeCategoryMaster, Name: "Category Master", Icon: "🏆", Type: models.BadgeMastery, Points: 250,
		Description: "Reach 80% accuracy with at least 10 answers in every category",
		Earned:      allCategoriesMastered,
	},
	{
		ID: BadgeEarlyBird, Name: "Early Bird", Icon: "🌅", Type: models.BadgeSpecial, Points: 50,
		Description: "Start 5 sessions between 5:00 and 7:00",
		Earned:      sessionsStartingBetween(5, 7),
	},
	{
		ID: BadgeNightOwl, Name: "Night Owl", Icon: "🦉", Type: models.BadgeSpecial, Points: 50,
		Description: "Start 5 sessions between 22:00 and 5:00",
		Earned:      sessionsStartingBetween(22, 5),
	},
	{
		ID: BadgeSpeedDemon, Name: "Speed Demon", Icon: "⚡", Type: models.BadgeSpecial, Points: 75,
		Description: "Answer 20 questions in under 5 minutes",
		Earned:      speedDemon,
	},
	{
		ID: BadgeMarathon, Name: "Marathon", Icon: "🏃", Type: models.BadgeSpecial, Points: 100,
		Description: "Study for 60 minutes in one session",
		Earned:      marathon,
	},
	{
		ID: BadgeQuizAce, Name: "Quiz Ace", Icon: "🥇", Type: models.BadgeMastery, Points: 150,
		Description: "Score 85% or more on 3 quizzes in a row",
		Earned:      quizAce,
	},
}

// LookupBadge returns the catalog definition of id
func LookupBadge(id models.BadgeID) (BadgeDefinition, bool) {
	for _, def := range Catalog {
		if def.ID == id {
			return def, true
		}
	}
	return BadgeDefinition{}, false
}

// CheckNewlyEarned evaluates every badge not in earned and returns the ones now satisfied.
// Session hours are read in now's location.
func CheckNewlyEarned(progress models.LearnerProgress, sessions []models.SessionRecord, earned map[models.BadgeID]bool, now time.Time) []models.Badge {
	ordered := mostRecentFirst(sessions)
	loc := now.Location()

	var badges []models.Badge
	for _, def := range Catalog {
		if earned[def.ID] {
			continue
		}
		if def.Earned(progress, ordered, loc) {
			badges = append(badges, def.Badge(now))
		}
	}
	return badges
}

func mostRecentFirst(sessions []models.SessionRecord) []models.SessionRecord {
	out := append([]models.SessionRecord(nil), sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func streakAtLeast(days int) BadgeCondition {
	return func(p models.LearnerProgress, _ []models.SessionRecord, _ *time.Location) bool {
		return p.StreakDays >= days
	}
}

func attemptedAtLeast(n int) BadgeCondition {
	return func(p models.LearnerProgress, _ []models.SessionRecord, _ *time.Location) bool {
		return p.TotalQuestionsAttempted >= n
	}
}

func accuracyAtLeast(percent float64, minAttempts int) BadgeCondition {
	return func(p models.LearnerProgress, _ []models.SessionRecord, _ *time.Location) bool {
		return p.TotalQuestionsAttempted >= minAttempts && p.OverallAccuracy >= percent
	}
}

func allCategoriesMastered(p models.LearnerProgress, _ []models.SessionRecord, _ *time.Location) bool {
	if len(p.CategoryProgress) == 0 {
		return false
	}
	for _, stats := range p.CategoryProgress {
		if stats.Attempted < CategoryMasterMinAttempts || stats.Accuracy < CategoryMasterAccuracy {
			return false
		}
	}
	return true
}

// sessionsStartingBetween counts sessions whose start hour falls in [from, to),
// wrapping past midnight when from > to
func sessionsStartingBetween(from, to int) BadgeCondition {
	return func(_ models.LearnerProgress, sessions []models.SessionRecord, loc *time.Location) bool {
		count := 0
		for _, s := range sessions {
			hour := s.StartedAt.In(loc).Hour()
			var inWindow bool
			if from < to {
				inWindow = hour >= from && hour < to
			} else {
				inWindow = hour >= from || hour < to
			}
			if inWindow {
				count++
			}
		}
		return count >= TimeOfDayMinSessions
	}
}

func speedDemon(_ models.LearnerProgress, sessions []models.SessionRecord, _ *time.Location) bool {
	for _, s := range sessions {
		if s.QuestionsTotal >= SpeedDemonMinQuestions && s.EndedAt.Sub(s.StartedAt) < SpeedDemonMaxDuration {
			return true
		}
	}
	return false
}

func marathon(_ models.LearnerProgress, sessions []models.SessionRecord, _ *time.Location) bool {
	for _, s := range sessions {
		if s.DurationMinutes >= MarathonMinMinutes {
			return true
		}
	}
	return false
}

// quizAce looks at the three most recent quiz or mock-exam sessions
func quizAce(_ models.LearnerProgress, sessions []models.SessionRecord, _ *time.Location) bool {
	count := 0
	for _, s := range sessions {
		if s.Type != models.SessionQuiz && s.Type != models.SessionMockExam {
			continue
		}
		if s.Accuracy < QuizAceAccuracy {
			return false
		}
		count++
		if count == QuizAceSessions {
			return true
		}
	}
	return false
}
