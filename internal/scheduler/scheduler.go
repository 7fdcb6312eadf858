package scheduler

import (
	"context"
	"time"

	"github.com/example/civicsbot/internal/logger"
	"github.com/example/civicsbot/pkg/models"
	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
)

// DefaultInterval is how often reminders are checked
const DefaultInterval = time.Hour

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Store
	notifier  Notifier
	log       *logger.Logger
	loc       *time.Location
	interval  time.Duration
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(chatID int64, count int) error
}

// Store is the learner data the scheduler reads and updates
type Store interface {
	RemindableLearners(ctx context.Context) ([]models.Learner, error)
	DueCount(ctx context.Context, learnerID int64) (int, error)
	MarkNotified(ctx context.Context, learnerID int64, at time.Time) error
}

// New creates a new scheduler instance
func New(store Store, notifier Notifier, loc *time.Location, interval time.Duration, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		store:     store,
		notifier:  notifier,
		log:       log,
		loc:       loc,
		interval:  interval,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		sent, err := s.CheckReminders(context.Background())
		if err != nil {
			s.log.Error("reminder check failed", "error", err)
			return
		}
		s.log.Debug("reminder check done", "sent", sent)
	})
	if err != nil {
		return errors.Wrap(err, "failed to schedule reminders")
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckReminders reminds learners whose notification hour is now and who have
// questions due. Each learner is reminded at most once per day.
func (s *Scheduler) CheckReminders(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)

	learners, err := s.store.RemindableLearners(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get learners for reminders")
	}

	sent := 0
	for _, learner := range learners {
		if learner.NotificationHour != now.Hour() || s.notifiedToday(learner, now) {
			continue
		}
		ok, err := s.remind(ctx, learner, now)
		if err != nil {
			s.log.Warn("reminder failed", "learner_id", learner.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// RunManualCheck reminds one learner right away if anything is due
func (s *Scheduler) RunManualCheck(ctx context.Context, learner models.Learner) (bool, error) {
	return s.remind(ctx, learner, s.now().In(s.loc))
}

func (s *Scheduler) remind(ctx context.Context, learner models.Learner, now time.Time) (bool, error) {
	due, err := s.store.DueCount(ctx, learner.ID)
	if err != nil {
		return false, err
	}
	if due == 0 {
		return false, nil
	}

	// Don't announce more than the learner's daily goal
	count := due
	if learner.DailyGoal > 0 && count > learner.DailyGoal {
		count = learner.DailyGoal
	}

	if err := s.notifier.SendReminders(learner.ChatID, count); err != nil {
		return false, errors.Wrapf(err, "failed to send reminder to chat %d", learner.ChatID)
	}
	if err := s.store.MarkNotified(ctx, learner.ID, now); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Scheduler) notifiedToday(learner models.Learner, now time.Time) bool {
	if learner.LastNotifiedAt == nil {
		return false
	}
	last := learner.LastNotifiedAt.In(s.loc)
	y1, m1, d1 := last.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
