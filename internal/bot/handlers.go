package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/civicsbot/internal/progress"
	"github.com/example/civicsbot/internal/quiz"
	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/internal/study"
	"github.com/example/civicsbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Callback actions
const (
	actionMenu     = "menu"
	actionHelp     = "help"
	actionPlan     = "plan"
	actionQuiz     = "quiz"
	actionCards    = "cards"
	actionExam     = "exam"
	actionStats    = "stats"
	actionBadges   = "badges"
	actionSettings = "settings"
	actionNotify   = "notify"
	actionHour     = "hour"
	actionGoal     = "goal"
	actionAnswer   = "ans"
	actionFlip     = "flip"
	actionGrade    = "grade"
	actionStop     = "stop"
)

var (
	goalPresets = []int{10, 20, 30}
	hourPresets = []int{8, 12, 18, 20}
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return errors.New("invalid message: required fields are missing")
	}
	chatID := message.Chat.ID

	if message.Command() == "start" {
		return b.handleStart(ctx, message)
	}
	if message.Command() == "help" {
		return b.handleHelp(chatID)
	}

	learner, err := b.learnerFor(ctx, message.From, chatID)
	if err != nil {
		return err
	}

	switch message.Command() {
	case "menu":
		return b.sendMenu(chatID, "🏛 Main menu. Choose an option:")
	case "plan":
		return b.handlePlan(ctx, chatID, learner)
	case "quiz":
		return b.startRun(ctx, chatID, learner, models.SessionQuiz)
	case "cards":
		return b.startRun(ctx, chatID, learner, models.SessionFlashcards)
	case "exam":
		return b.startRun(ctx, chatID, learner, models.SessionMockExam)
	case "stop":
		return b.handleStop(ctx, chatID)
	case "stats":
		return b.handleStats(ctx, chatID, learner)
	case "badges":
		return b.handleBadges(ctx, chatID, learner)
	case "settings":
		return b.handleSettings(chatID, learner)
	case "goal":
		return b.handleGoalCommand(ctx, chatID, learner, message.CommandArguments())
	case "notify":
		return b.handleNotifyCommand(ctx, chatID, learner, message.CommandArguments())
	case "import":
		// Admin-only command
		if !b.isAdmin(message.From.ID) {
			return b.sendMenu(chatID, "This command is only available for administrators.")
		}
		b.setAwaitingUpload(chatID, true)
		return b.sendText(chatID, "📤 Send me an .xlsx or .csv file with the columns:\n"+
			"id, category, question, answer, explanation\n\n"+
			"The first row is a header. A row with only the first cell filled starts a new category.")
	default:
		return b.sendMenu(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// learnerFor returns the chat's learner, registering it on first contact
func (b *Bot) learnerFor(ctx context.Context, user *tgbotapi.User, chatID int64) (*models.Learner, error) {
	learner, err := b.svc.LearnerByChat(ctx, chatID)
	if err == nil {
		return learner, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return b.svc.RegisterLearner(ctx, chatID, user.UserName, user.FirstName)
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	learner, err := b.svc.RegisterLearner(ctx, message.Chat.ID, message.From.UserName, message.From.FirstName)
	if err != nil {
		return err
	}

	name := learner.FirstName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi %s! Welcome to the Civics Test Coach.\n\n", name) +
		"I'll help you prepare for the U.S. citizenship civics test with spaced repetition.\n\n" +
		"🔹 How it works:\n" +
		"1. Answer a few questions every day\n" +
		"2. Questions you miss come back sooner\n" +
		"3. Questions you know well come back later\n" +
		"4. Earn points, levels and badges on the way\n\n" +
		fmt.Sprintf("Your daily goal is %d questions. Change it in Settings.", learner.DailyGoal)
	return b.sendMenu(message.Chat.ID, text)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Help\n\n" +
		"🔸 Study:\n" +
		"/plan - Today's study plan\n" +
		"/quiz - Multiple-choice quiz from your plan\n" +
		"/cards - Flashcards you grade yourself\n" +
		"/exam - Mock civics test with 10 random questions\n" +
		"/stop - Stop the current session\n\n" +
		"📊 Progress:\n" +
		"/stats - Points, level, streak and test readiness\n" +
		"/badges - Earned and locked badges\n\n" +
		"⚙️ Settings:\n" +
		"/settings - Show your settings\n" +
		"/goal N - Set your daily goal\n" +
		"/notify on|off|HOUR - Reminders and their hour\n\n" +
		"💡 Answer within 20 seconds for the best review schedule. " +
		"Six correct answers out of ten pass the mock exam."
	return b.sendMenu(chatID, text)
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, learner *models.Learner) error {
	plan, err := b.svc.Plan(ctx, learner.ID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, formatPlan(plan, learner.DailyGoal))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🧠 Start quiz", CallbackData: actionQuiz}, {Text: "🃏 Flashcards", CallbackData: actionCards}},
		{{Text: "⬅️ Menu", CallbackData: actionMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64, learner *models.Learner) error {
	report, err := b.svc.Report(ctx, learner.ID)
	if err != nil {
		return err
	}
	return b.sendMenu(chatID, formatReport(report))
}

func (b *Bot) handleBadges(ctx context.Context, chatID int64, learner *models.Learner) error {
	report, err := b.svc.Report(ctx, learner.ID)
	if err != nil {
		return err
	}
	return b.sendMenu(chatID, formatBadges(report))
}

func (b *Bot) handleSettings(chatID int64, learner *models.Learner) error {
	text := fmt.Sprintf("⚙️ Settings\n\n🎯 Daily goal: %d questions\n🔔 Reminders: %s at %02d:00",
		learner.DailyGoal, boolToEnabledString(learner.NotificationsEnabled), learner.NotificationHour)

	var goalRow, hourRow []MenuButton
	for _, g := range goalPresets {
		goalRow = append(goalRow, MenuButton{Text: fmt.Sprintf("🎯 %d", g), CallbackData: callbackData(actionGoal, g)})
	}
	for _, h := range hourPresets {
		hourRow = append(hourRow, MenuButton{Text: fmt.Sprintf("%02d:00", h), CallbackData: callbackData(actionHour, h)})
	}
	toggle := "🔕 Turn reminders off"
	if !learner.NotificationsEnabled {
		toggle = "🔔 Turn reminders on"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		goalRow,
		hourRow,
		{{Text: toggle, CallbackData: actionNotify}},
		{{Text: "⬅️ Menu", CallbackData: actionMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleGoalCommand(ctx context.Context, chatID int64, learner *models.Learner, args string) error {
	goal, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Usage: /goal N, for example /goal 20 (1-%d)", study.MaxDailyGoal))
	}
	return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) { l.DailyGoal = goal })
}

func (b *Bot) handleNotifyCommand(ctx context.Context, chatID int64, learner *models.Learner, args string) error {
	arg := strings.ToLower(strings.TrimSpace(args))
	switch arg {
	case "on":
		return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) { l.NotificationsEnabled = true })
	case "off":
		return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) { l.NotificationsEnabled = false })
	}
	hour, err := strconv.Atoi(arg)
	if err != nil {
		return b.sendText(chatID, "Usage: /notify on, /notify off or /notify HOUR (0-23)")
	}
	return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) {
		l.NotificationHour = hour
		l.NotificationsEnabled = true
	})
}

func (b *Bot) updateSettings(ctx context.Context, chatID int64, learner *models.Learner, change func(*models.Learner)) error {
	updated := *learner
	change(&updated)
	if err := b.svc.UpdateSettings(ctx, &updated); err != nil {
		return err
	}
	return b.handleSettings(chatID, &updated)
}

func boolToEnabledString(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// startRun builds cards for a new session and shows the first one
func (b *Bot) startRun(ctx context.Context, chatID int64, learner *models.Learner, sessionType models.SessionType) error {
	cards, err := b.buildCards(ctx, learner, sessionType)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return b.sendMenu(chatID, "The question bank is empty. An administrator can load it with /import.")
	}

	run := quiz.NewRun(learner.ID, sessionType, cards, b.now())
	if prev := b.tracker.Start(chatID, run); prev != nil {
		b.recordPartial(ctx, prev)
	}
	b.log.Debug("run started", "chat_id", chatID, "run_id", run.ID, "type", sessionType, "cards", len(cards))
	return b.sendCard(chatID, run)
}

func (b *Bot) buildCards(ctx context.Context, learner *models.Learner, sessionType models.SessionType) ([]quiz.Card, error) {
	bank, err := b.svc.Bank(ctx)
	if err != nil {
		return nil, err
	}

	if sessionType == models.SessionMockExam {
		b.builderMu.Lock()
		defer b.builderMu.Unlock()
		return b.builder.MultipleChoice(b.builder.Sample(bank, b.config.MockExamSize), bank), nil
	}

	size := b.config.QuizSize
	if sessionType == models.SessionFlashcards {
		size = b.config.FlashcardCount
	}
	questions, err := b.svc.PlannedQuestions(ctx, learner.ID, size)
	if err != nil {
		return nil, err
	}

	b.builderMu.Lock()
	defer b.builderMu.Unlock()

	questions = b.topUp(questions, bank, size)
	if sessionType == models.SessionFlashcards {
		return quiz.Flashcards(questions), nil
	}
	return b.builder.MultipleChoice(questions, bank), nil
}

// topUp fills questions to size with random bank questions not already chosen.
// The caller holds builderMu.
func (b *Bot) topUp(questions, bank []models.Question, size int) []models.Question {
	if len(questions) >= size {
		return questions
	}
	chosen := make(map[string]bool, len(questions))
	for _, q := range questions {
		chosen[q.ID] = true
	}
	var rest []models.Question
	for _, q := range bank {
		if !chosen[q.ID] {
			rest = append(rest, q)
		}
	}
	return append(questions, b.builder.Sample(rest, size-len(questions))...)
}

func (b *Bot) sendCard(chatID int64, run *quiz.Run) error {
	card, ok := run.CurrentCard()
	if !ok {
		return nil
	}
	index, _ := run.Progress()

	var rows [][]MenuButton
	if len(card.Options) > 0 {
		var row []MenuButton
		for i := range card.Options {
			row = append(row, MenuButton{Text: string(rune('A' + i)), CallbackData: callbackData(actionAnswer, index, i)})
		}
		rows = append(rows, row)
	} else {
		rows = append(rows, []MenuButton{{Text: "👀 Show answer", CallbackData: callbackData(actionFlip, index)}})
	}
	rows = append(rows, []MenuButton{{Text: "⏹ Stop", CallbackData: actionStop}})

	msg := tgbotapi.NewMessage(chatID, formatCard(card, index, len(run.Cards), run.Type))
	msg.ReplyMarkup = createKeyboard(rows)
	return b.sendMessage(msg)
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return errors.New("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	action, args, err := parseCallback(callback.Data)
	if err != nil {
		return err
	}

	switch action {
	case actionHelp:
		return b.handleHelp(chatID)
	case actionAnswer:
		if len(args) != 2 {
			return errors.Wrapf(models.ErrInvalidArgument, "callback %q", callback.Data)
		}
		return b.handleAnswer(ctx, chatID, args[0], args[1])
	case actionFlip:
		if len(args) != 1 {
			return errors.Wrapf(models.ErrInvalidArgument, "callback %q", callback.Data)
		}
		return b.handleFlip(chatID, args[0])
	case actionGrade:
		if len(args) != 2 {
			return errors.Wrapf(models.ErrInvalidArgument, "callback %q", callback.Data)
		}
		return b.handleGrade(ctx, chatID, args[0], spaced_repetition.QualityResponse(args[1]))
	case actionStop:
		return b.handleStop(ctx, chatID)
	}

	learner, err := b.learnerFor(ctx, callback.From, chatID)
	if err != nil {
		return err
	}

	switch action {
	case actionMenu:
		return b.sendMenu(chatID, "🏛 Main menu. Choose an option:")
	case actionPlan:
		return b.handlePlan(ctx, chatID, learner)
	case actionQuiz:
		return b.startRun(ctx, chatID, learner, models.SessionQuiz)
	case actionCards:
		return b.startRun(ctx, chatID, learner, models.SessionFlashcards)
	case actionExam:
		return b.startRun(ctx, chatID, learner, models.SessionMockExam)
	case actionStats:
		return b.handleStats(ctx, chatID, learner)
	case actionBadges:
		return b.handleBadges(ctx, chatID, learner)
	case actionSettings:
		return b.handleSettings(chatID, learner)
	case actionNotify:
		return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) { l.NotificationsEnabled = !l.NotificationsEnabled })
	case actionGoal:
		if len(args) != 1 {
			return errors.Wrapf(models.ErrInvalidArgument, "callback %q", callback.Data)
		}
		return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) { l.DailyGoal = args[0] })
	case actionHour:
		if len(args) != 1 {
			return errors.Wrapf(models.ErrInvalidArgument, "callback %q", callback.Data)
		}
		return b.updateSettings(ctx, chatID, learner, func(l *models.Learner) {
			l.NotificationHour = args[0]
			l.NotificationsEnabled = true
		})
	default:
		return b.sendText(chatID, "⚠️ Unknown action")
	}
}

// activeCard returns the chat's run when index is its current card
func (b *Bot) activeCard(chatID int64, index int) (*quiz.Run, quiz.Card, bool) {
	run, ok := b.tracker.Get(chatID)
	if !ok {
		return nil, quiz.Card{}, false
	}
	card, ok := run.CurrentCard()
	if answered, _ := run.Progress(); !ok || answered != index {
		return nil, quiz.Card{}, false
	}
	return run, card, true
}

func (b *Bot) handleAnswer(ctx context.Context, chatID int64, index, option int) error {
	run, card, ok := b.activeCard(chatID, index)
	if !ok {
		return nil
	}
	correct := card.IsCorrect(option)
	now := b.now()
	hesitant, err := run.Answered(index, correct, now)
	if err != nil {
		// repeated press on an answered card
		return nil
	}

	out, err := b.svc.Answer(ctx, run.LearnerID, card.Question.ID, correct, hesitant)
	if err != nil {
		return err
	}
	if err := b.sendText(chatID, formatAnswer(out, card, now)); err != nil {
		return err
	}
	return b.next(ctx, chatID, run)
}

func (b *Bot) handleFlip(chatID int64, index int) error {
	_, card, ok := b.activeCard(chatID, index)
	if !ok {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, formatFlashcardBack(card))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{
			{Text: "😵 Again", CallbackData: callbackData(actionGrade, index, int(spaced_repetition.QualityIncorrect))},
			{Text: "😓 Hard", CallbackData: callbackData(actionGrade, index, int(spaced_repetition.QualityCorrectDifficult))},
		},
		{
			{Text: "🙂 Good", CallbackData: callbackData(actionGrade, index, int(spaced_repetition.QualityCorrectHesitation))},
			{Text: "😎 Easy", CallbackData: callbackData(actionGrade, index, int(spaced_repetition.QualityPerfect))},
		},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleGrade(ctx context.Context, chatID int64, index int, rating spaced_repetition.QualityResponse) error {
	if !rating.Valid() {
		return errors.Wrapf(models.ErrInvalidArgument, "rating %d outside 0-5", rating)
	}
	run, card, ok := b.activeCard(chatID, index)
	if !ok {
		return nil
	}
	now := b.now()
	if _, err := run.Answered(index, rating >= spaced_repetition.QualityCorrectDifficult, now); err != nil {
		return nil
	}

	out, err := b.svc.Grade(ctx, run.LearnerID, card.Question.ID, rating)
	if err != nil {
		return err
	}
	if err := b.sendText(chatID, formatAnswer(out, card, now)); err != nil {
		return err
	}
	return b.next(ctx, chatID, run)
}

// next shows the following card or wraps the run up
func (b *Bot) next(ctx context.Context, chatID int64, run *quiz.Run) error {
	if !run.Done() {
		return b.sendCard(chatID, run)
	}
	if !b.tracker.Remove(chatID, run) {
		return nil
	}
	return b.finishRun(ctx, chatID, run)
}

func (b *Bot) finishRun(ctx context.Context, chatID int64, run *quiz.Run) error {
	answered, correct := run.Progress()
	session := progress.NewSession(run.ID, run.Type, run.StartedAt, b.now(), answered, correct)
	out, err := b.svc.CompleteSession(ctx, run.LearnerID, session)
	if err != nil {
		return err
	}
	return b.sendMenu(chatID, formatSession(out))
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) error {
	run, ok := b.tracker.Get(chatID)
	if !ok || !b.tracker.Remove(chatID, run) {
		return b.sendMenu(chatID, "Nothing to stop.")
	}
	if answered, _ := run.Progress(); answered == 0 {
		return b.sendMenu(chatID, "⏹ Session stopped.")
	}
	return b.finishRun(ctx, chatID, run)
}

// recordPartial saves the answered part of a run replaced by a new one
func (b *Bot) recordPartial(ctx context.Context, run *quiz.Run) {
	answered, correct := run.Progress()
	if answered == 0 {
		return
	}
	session := progress.NewSession(run.ID, run.Type, run.StartedAt, b.now(), answered, correct)
	if _, err := b.svc.CompleteSession(ctx, run.LearnerID, session); err != nil {
		b.log.Warn("failed to record abandoned run", "run_id", run.ID, "error", err)
	}
}
