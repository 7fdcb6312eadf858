package bot

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/example/civicsbot/internal/config"
	"github.com/example/civicsbot/internal/excel"
	"github.com/example/civicsbot/internal/logger"
	"github.com/example/civicsbot/internal/quiz"
	"github.com/example/civicsbot/internal/study"
	"github.com/example/civicsbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// telegramAPI is the part of the Bot API client the bot uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api          telegramAPI
	botAPI       *tgbotapi.BotAPI
	token        string
	debug        bool
	svc          *study.Service
	tracker      *quiz.Tracker
	adminUserIDs map[int64]bool
	config       *BotConfig
	log          *logger.Logger
	now          func() time.Time
	httpClient   *http.Client

	builderMu sync.Mutex
	builder   *quiz.Builder

	uploadMu           sync.Mutex
	awaitingFileUpload map[int64]bool
}

// New creates a new bot instance
func New(cfg *config.Config, svc *study.Service, log *logger.Logger) (*Bot, error) {
	if cfg.Telegram.Token == "" {
		return nil, errors.New("telegram token is not set")
	}

	botConfig := DefaultConfig()
	if cfg.Study.QuizSize > 0 {
		botConfig.QuizSize = cfg.Study.QuizSize
		botConfig.FlashcardCount = cfg.Study.QuizSize
	}

	bot := &Bot{
		token:              cfg.Telegram.Token,
		debug:              cfg.Telegram.Debug,
		svc:                svc,
		tracker:            quiz.NewTracker(),
		builder:            quiz.NewBuilder(time.Now().UnixNano()),
		adminUserIDs:       make(map[int64]bool),
		awaitingFileUpload: make(map[int64]bool),
		config:             botConfig,
		log:                log.With("component", "bot"),
		now:                time.Now,
		httpClient:         &http.Client{Timeout: botConfig.DownloadTimeout},
	}
	for _, id := range cfg.Telegram.AdminIDs {
		bot.adminUserIDs[id] = true
	}
	return bot, nil
}

// Start connects to Telegram and handles updates until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return errors.Wrap(err, "unable to create bot")
	}
	botAPI.Debug = b.debug

	b.botAPI = botAPI
	b.api = botAPI
	b.log.Info("authorized", "account", botAPI.Self.UserName)

	// Set up the update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops receiving updates
func (b *Bot) Stop() {
	if b.botAPI != nil {
		b.botAPI.StopReceivingUpdates()
	}
	b.log.Info("bot stopped")
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(chatID int64, count int) error {
	msg := tgbotapi.NewMessage(chatID, formatReminder(count))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if _, err := b.api.Send(msg); err != nil {
		return errors.Wrapf(err, "failed to send reminder to chat %d", chatID)
	}
	b.log.Debug("reminder sent", "chat_id", chatID, "count", count)
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

func (b *Bot) setAwaitingUpload(chatID int64, waiting bool) {
	b.uploadMu.Lock()
	defer b.uploadMu.Unlock()
	if waiting {
		b.awaitingFileUpload[chatID] = true
		return
	}
	delete(b.awaitingFileUpload, chatID)
}

func (b *Bot) isAwaitingUpload(chatID int64) bool {
	b.uploadMu.Lock()
	defer b.uploadMu.Unlock()
	return b.awaitingFileUpload[chatID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		message := update.Message
		var err error
		switch {
		case message.IsCommand():
			err = b.HandleCommand(ctx, message)
		case message.Document != nil && b.isAwaitingUpload(message.Chat.ID):
			err = b.processImport(ctx, message)
		default:
			err = b.sendMenu(message.Chat.ID, "I don't understand. Use /menu to show the main menu.")
		}
		if err != nil {
			b.replyError(message.Chat.ID, err)
		}
	case update.CallbackQuery != nil:
		if err := b.HandleCallback(ctx, update.CallbackQuery); err != nil && update.CallbackQuery.Message != nil {
			b.replyError(update.CallbackQuery.Message.Chat.ID, err)
		}
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		return errors.Wrapf(err, "failed to send message to chat %d", msg.ChatID)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMenu(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// replyError logs err and tells the user what went wrong
func (b *Bot) replyError(chatID int64, err error) {
	text := "❌ Something went wrong. Please try again later."
	switch {
	case errors.Is(err, models.ErrNotFound):
		text = "⚠️ I couldn't find that. Send /start to set up your profile."
		b.log.Warn("not found", "chat_id", chatID, "error", err)
	case errors.Is(err, models.ErrInvalidArgument):
		text = "⚠️ " + err.Error()
		b.log.Warn("invalid request", "chat_id", chatID, "error", err)
	default:
		b.log.Error("update failed", "chat_id", chatID, "error", err)
	}
	if _, sendErr := b.api.Send(tgbotapi.NewMessage(chatID, text)); sendErr != nil {
		b.log.Error("failed to send error reply", "chat_id", chatID, "error", sendErr)
	}
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🧠 Quiz", CallbackData: actionQuiz},
			{Text: "🃏 Flashcards", CallbackData: actionCards},
		},
		{
			{Text: "🇺🇸 Mock exam", CallbackData: actionExam},
			{Text: "📋 Today's plan", CallbackData: actionPlan},
		},
		{
			{Text: "📊 Statistics", CallbackData: actionStats},
			{Text: "🏅 Badges", CallbackData: actionBadges},
		},
		{
			{Text: "⚙️ Settings", CallbackData: actionSettings},
		},
	}
}

// processImport downloads an uploaded question bank and imports it
func (b *Bot) processImport(ctx context.Context, message *tgbotapi.Message) error {
	b.setAwaitingUpload(message.Chat.ID, false)

	doc := message.Document
	if int64(doc.FileSize) > b.config.MaxImportBytes {
		return b.sendMenu(message.Chat.ID, "❌ The file is too large.")
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return errors.Wrap(err, "failed to get file URL")
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.DownloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build download request")
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to download file")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	result, err := b.svc.ImportQuestions(ctx, io.LimitReader(resp.Body, b.config.MaxImportBytes), excel.FormatFromPath(doc.FileName))
	if err != nil {
		return err
	}
	b.log.Info("question bank uploaded", "user_id", message.From.ID, "file", doc.FileName)
	return b.sendMenu(message.Chat.ID, formatImport(result))
}
