package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/civicsbot/internal/excel"
	"github.com/example/civicsbot/internal/gamification"
	"github.com/example/civicsbot/internal/quiz"
	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/internal/study"
	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
)

// callbackData joins an action and its numeric arguments, e.g. "ans:3:1"
func callbackData(action string, args ...int) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, action)
	for _, a := range args {
		parts = append(parts, strconv.Itoa(a))
	}
	return strings.Join(parts, ":")
}

// parseCallback splits callback data built by callbackData
func parseCallback(data string) (string, []int, error) {
	parts := strings.Split(data, ":")
	args := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", nil, errors.Wrapf(models.ErrInvalidArgument, "callback %q", data)
		}
		args = append(args, n)
	}
	return parts[0], args, nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// progressBar draws percent as ten blocks
func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 10
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

func formatInterval(next, now time.Time) string {
	days := int(next.Sub(now).Round(time.Hour).Hours() / 24)
	switch {
	case days <= 0:
		return "later today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

var actionLabels = map[gamification.Action]string{
	gamification.ActionCorrectAnswer:       "Correct answer",
	gamification.ActionPerfectSession:      "Perfect session",
	gamification.ActionDailyLogin:          "First session today",
	gamification.ActionFirstAttemptCorrect: "Right on the first try",
	gamification.ActionCategoryComplete:    "Category mastered",
	gamification.ActionMockExamPass:        "Mock exam passed",
	gamification.ActionSessionComplete:     "Session complete",
}

func actionLabel(a gamification.Action) string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return a.String()
}

func sessionTitle(t models.SessionType) string {
	switch t {
	case models.SessionQuiz:
		return "Quiz"
	case models.SessionFlashcards:
		return "Flashcards"
	case models.SessionMockExam:
		return "Mock exam"
	}
	return string(t)
}

func formatPlan(plan spaced_repetition.StudyPlan, dailyGoal int) string {
	var sb strings.Builder
	sb.WriteString("📋 Today's plan\n\n")
	if plan.TotalRecommended == 0 {
		sb.WriteString("Nothing to study right now. Come back tomorrow!")
		return sb.String()
	}
	fmt.Fprintf(&sb, "🔁 Due for review: %d\n", len(plan.DueToday))
	fmt.Fprintf(&sb, "🆕 New questions: %d\n", len(plan.NewItems))
	fmt.Fprintf(&sb, "🎯 Weak-area practice: %d\n", len(plan.WeakAreaReview))
	fmt.Fprintf(&sb, "\nTotal: %d of your daily goal of %d\n", plan.TotalRecommended, dailyGoal)
	if len(plan.WeakCategories) > 0 {
		fmt.Fprintf(&sb, "\nFocus on: %s\n", strings.Join(plan.WeakCategories, ", "))
	}
	return sb.String()
}

func formatCard(card quiz.Card, index, total int, sessionType models.SessionType) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s · %d/%d\n", sessionTitle(sessionType), index+1, total)
	fmt.Fprintf(&sb, "🏷 %s\n\n", card.Question.Category)
	sb.WriteString("❓ " + card.Question.Prompt)
	if len(card.Options) > 0 {
		sb.WriteString("\n")
		for i, opt := range card.Options {
			fmt.Fprintf(&sb, "\n%c) %s", 'A'+i, opt)
		}
	}
	return sb.String()
}

func formatFlashcardBack(card quiz.Card) string {
	text := fmt.Sprintf("❓ %s\n\n✅ %s", card.Question.Prompt, card.Question.Answer)
	if card.Question.Explanation != "" {
		text += "\n\nℹ️ " + card.Question.Explanation
	}
	return text + "\n\nHow well did you know it?"
}

func formatOutcome(sb *strings.Builder, o study.Outcome) {
	if o.Points > 0 {
		fmt.Fprintf(sb, "\n⭐ +%d points", o.Points)
		for _, a := range o.Awards {
			fmt.Fprintf(sb, "\n   %s: +%d", actionLabel(a.Action), a.Points)
		}
	}
	for _, b := range o.NewBadges {
		fmt.Fprintf(sb, "\n%s New badge: %s (+%d)", b.Icon, b.Name, b.Points)
	}
	if o.LevelUp {
		fmt.Fprintf(sb, "\n🎉 Level up! You are now level %d: %s", o.Level, gamification.LevelTitle(o.Level))
	}
}

func formatAnswer(out *study.AnswerOutcome, card quiz.Card, now time.Time) string {
	var sb strings.Builder
	if out.Correct {
		sb.WriteString("✅ Correct!")
	} else {
		fmt.Fprintf(&sb, "❌ Not quite. The answer is: %s", card.Question.Answer)
	}
	if card.Question.Explanation != "" {
		sb.WriteString("\nℹ️ " + card.Question.Explanation)
	}
	fmt.Fprintf(&sb, "\n🗓 Next review %s", formatInterval(out.Item.NextReviewAt, now))
	for _, category := range out.CompletedCategories {
		fmt.Fprintf(&sb, "\n🏆 You mastered %s!", category)
	}
	formatOutcome(&sb, out.Outcome)
	return sb.String()
}

func formatSession(out *study.SessionOutcome) string {
	s := out.Session
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 %s finished\n\n", sessionTitle(s.Type))
	if s.QuestionsTotal > 0 {
		fmt.Fprintf(&sb, "Score: %d/%d (%.0f%%)\n", s.QuestionsCorrect, s.QuestionsTotal, s.Accuracy)
	}
	if s.Type == models.SessionMockExam && s.QuestionsTotal > 0 {
		if s.Accuracy >= gamification.MockExamPassAccuracy {
			sb.WriteString("🇺🇸 You would pass the civics test!\n")
		} else {
			sb.WriteString("📚 Not a pass yet. Keep practicing!\n")
		}
	}
	fmt.Fprintf(&sb, "🔥 Streak: %s", pluralize(out.StreakDays, "day", "days"))
	formatOutcome(&sb, out.Outcome)
	return sb.String()
}

func formatReport(r *study.Report) string {
	var sb strings.Builder
	sb.WriteString("📊 Your progress\n\n")
	fmt.Fprintf(&sb, "🎖 Level %d: %s\n", r.Level, r.LevelTitle)
	if r.NextLevel.Needed > 0 {
		fmt.Fprintf(&sb, "%s %d/%d to the next level\n", progressBar(r.NextLevel.Percentage), r.NextLevel.Current, r.NextLevel.Needed)
	}
	fmt.Fprintf(&sb, "⭐ Points: %d\n", r.TotalPoints)
	fmt.Fprintf(&sb, "🔥 Streak: %s\n\n", pluralize(r.StreakDays, "day", "days"))

	fmt.Fprintf(&sb, "📝 Answers: %d (%.0f%% correct)\n", r.QuestionsAttempted, r.OverallAccuracy)
	fmt.Fprintf(&sb, "👀 Seen: %d of %d questions\n", r.Seen, r.BankSize)
	fmt.Fprintf(&sb, "🧠 Mastered: %d\n", r.Mastered)
	fmt.Fprintf(&sb, "🔁 Due now: %d\n", r.Due)
	fmt.Fprintf(&sb, "⏱ Study time: %s\n\n", pluralize(r.StudyMinutes, "minute", "minutes"))

	fmt.Fprintf(&sb, "🇺🇸 Test readiness: %d%%\n%s\n", r.PassProbability, progressBar(r.PassProbability))
	fmt.Fprintf(&sb, "💪 Engagement: %d/100\n", r.Engagement)

	if r.Sessions.Count > 0 {
		fmt.Fprintf(&sb, "\n📈 Sessions: %d, average %.0f%%, trend %s\n", r.Sessions.Count, r.Sessions.AverageAccuracy, r.Sessions.Trend)
	}
	if len(r.WeakCategories) > 0 {
		fmt.Fprintf(&sb, "🎯 Needs work: %s\n", strings.Join(r.WeakCategories, ", "))
	}
	fmt.Fprintf(&sb, "🏅 Badges: %d of %d", len(r.Badges), len(gamification.Catalog))
	return sb.String()
}

func formatBadges(r *study.Report) string {
	earned := make(map[models.BadgeID]models.Badge, len(r.Badges))
	for _, b := range r.Badges {
		earned[b.ID] = b
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏅 Badges (%d/%d)\n", len(r.Badges), len(gamification.Catalog))
	for _, def := range gamification.Catalog {
		if b, ok := earned[def.ID]; ok {
			fmt.Fprintf(&sb, "\n%s %s, earned %s", b.Icon, b.Name, b.EarnedAt.Format("Jan 2, 2006"))
			continue
		}
		fmt.Fprintf(&sb, "\n🔒 %s: %s", def.Name, def.Description)
	}
	return sb.String()
}

func formatImport(r *excel.ImportResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Questions processed: %d\n- Added: %d\n- Updated: %d\n- Skipped: %d\n",
		r.TotalProcessed, r.Created, r.Updated, r.Skipped)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\n❌ Errors (%d):\n", len(r.Errors))
		for i, e := range r.Errors {
			if i == 10 {
				fmt.Fprintf(&sb, "- ... and %d more\n", len(r.Errors)-i)
				break
			}
			sb.WriteString("- " + e + "\n")
		}
	}
	return sb.String()
}

func formatReminder(count int) string {
	return fmt.Sprintf("⏰ You have %s to review today! Tap Quiz or Flashcards to keep your streak going.",
		pluralize(count, "question", "questions"))
}
