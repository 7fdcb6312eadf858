// Package gamification turns study activity into points, levels, badges and readiness scores.
// Every function is pure: callers pass the learner state and the current time.
package gamification

import (
	"math"

	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
)

// Action is a point-earning event
type Action int

const (
	ActionCorrectAnswer Action = iota + 1
	ActionPerfectSession
	ActionDailyLogin
	ActionFirstAttemptCorrect
	ActionCategoryComplete
	ActionMockExamPass
	ActionInterviewComplete
	ActionSpeechPractice
	ActionSessionComplete
	ActionReadingPractice
	ActionWritingPractice
	ActionChallengeComplete
)

var actionNames = map[Action]string{
	ActionCorrectAnswer:       "correct_answer",
	ActionPerfectSession:      "perfect_session",
	ActionDailyLogin:          "daily_login",
	ActionFirstAttemptCorrect: "first_attempt_correct",
	ActionCategoryComplete:    "category_complete",
	ActionMockExamPass:        "mock_exam_pass",
	ActionInterviewComplete:   "ai_interview_complete",
	ActionSpeechPractice:      "speech_practice",
	ActionSessionComplete:     "study_session_complete",
	ActionReadingPractice:     "reading_practice",
	ActionWritingPractice:     "writing_practice",
	ActionChallengeComplete:   "challenge_complete",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// BasePoints returns the points an action is worth before multipliers
func (a Action) BasePoints() (int, bool) {
	switch a {
	case ActionCorrectAnswer:
		return 10, true
	case ActionPerfectSession:
		return 50, true
	case ActionDailyLogin:
		return 5, true
	case ActionFirstAttemptCorrect:
		return 15, true
	case ActionCategoryComplete:
		return 100, true
	case ActionMockExamPass:
		return 200, true
	case ActionInterviewComplete:
		return 75, true
	case ActionSpeechPractice:
		return 20, true
	case ActionSessionComplete:
		return 30, true
	case ActionReadingPractice:
		return 15, true
	case ActionWritingPractice:
		return 15, true
	case ActionChallengeComplete:
		return 100, true
	}
	return 0, false
}

// StreakMultiplier rewards long study streaks
func StreakMultiplier(streakDays int) float64 {
	switch {
	case streakDays >= 30:
		return 2.0
	case streakDays >= 14:
		return 1.5
	case streakDays >= 7:
		return 1.25
	default:
		return 1.0
	}
}

// AwardPoints computes the points for action given the learner's streak.
// extra is an additional multiplier; pass 1 for none.
func AwardPoints(action Action, progress models.LearnerProgress, extra float64) (int, error) {
	base, ok := action.BasePoints()
	if !ok {
		return 0, errors.Wrapf(models.ErrInvalidArgument, "unknown action %d", action)
	}
	if extra < 0 || math.IsNaN(extra) || math.IsInf(extra, 0) {
		return 0, errors.Wrapf(models.ErrInvalidArgument, "multiplier %v", extra)
	}
	return int(math.Round(float64(base) * StreakMultiplier(progress.StreakDays) * extra)), nil
}

// Award is one line of a point breakdown
type Award struct {
	Action Action `json:"action"`
	Points int    `json:"points"`
}

// Total sums a breakdown
func Total(awards []Award) int {
	total := 0
	for _, a := range awards {
		total += a.Points
	}
	return total
}

// MockExamPassAccuracy is the share of correct answers that passes the civics test (6 of 10)
const MockExamPassAccuracy = 60.0

// ScoreSession returns the point breakdown for a completed session.
// firstOfDay marks the learner's first session on that calendar day.
func ScoreSession(progress models.LearnerProgress, session models.SessionRecord, firstOfDay bool) []Award {
	var actions []Action
	actions = append(actions, ActionSessionComplete)
	if firstOfDay {
		actions = append(actions, ActionDailyLogin)
	}
	if session.QuestionsTotal > 0 && session.QuestionsCorrect == session.QuestionsTotal {
		actions = append(actions, ActionPerfectSession)
	}

	switch session.Type {
	case models.SessionMockExam:
		if session.QuestionsTotal > 0 && session.Accuracy >= MockExamPassAccuracy {
			actions = append(actions, ActionMockExamPass)
		}
	case models.SessionInterview:
		actions = append(actions, ActionInterviewComplete)
	case models.SessionSpeech:
		actions = append(actions, ActionSpeechPractice)
	case models.SessionReading:
		actions = append(actions, ActionReadingPractice)
	case models.SessionWriting:
		actions = append(actions, ActionWritingPractice)
	case models.SessionChallenge:
		actions = append(actions, ActionChallengeComplete)
	}

	awards := make([]Award, 0, len(actions))
	for _, action := range actions {
		points, _ := AwardPoints(action, progress, 1)
		awards = append(awards, Award{Action: action, Points: points})
	}
	return awards
}

// ScoreAnswer returns the points for one graded answer.
// firstAttempt is true when the item had never been answered before.
func ScoreAnswer(progress models.LearnerProgress, correct, firstAttempt bool) []Award {
	if !correct {
		return nil
	}
	points, _ := AwardPoints(ActionCorrectAnswer, progress, 1)
	awards := []Award{{Action: ActionCorrectAnswer, Points: points}}
	if firstAttempt {
		bonus, _ := AwardPoints(ActionFirstAttemptCorrect, progress, 1)
		awards = append(awards, Award{Action: ActionFirstAttemptCorrect, Points: bonus})
	}
	return awards
}
