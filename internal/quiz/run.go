package quiz

import (
	"sync"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// HesitationThreshold is how long an answer may take before it counts as hesitant
const HesitationThreshold = 20 * time.Second

// Run is a study session in progress
type Run struct {
	ID        string
	LearnerID int64
	Type      models.SessionType
	StartedAt time.Time
	Cards     []Card
	Current   int
	Correct   int

	mu      sync.Mutex
	shownAt time.Time
}

// NewRun starts a run over cards at now
func NewRun(learnerID int64, sessionType models.SessionType, cards []Card, now time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Type:      sessionType,
		StartedAt: now,
		Cards:     cards,
		shownAt:   now,
	}
}

// CurrentCard returns the card awaiting an answer
func (r *Run) CurrentCard() (Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done() {
		return Card{}, false
	}
	return r.Cards[r.Current], true
}

// Done reports whether every card has been answered
func (r *Run) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done()
}

func (r *Run) done() bool {
	return r.Current >= len(r.Cards)
}

// Answered records the outcome of card index and moves to the next one.
// It returns whether the answer was slow enough to count as hesitant.
// An index other than the current card is rejected, which drops repeated button presses.
func (r *Run) Answered(index int, correct bool, now time.Time) (hesitant bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done() {
		return false, errors.Wrap(models.ErrInvalidArgument, "run is already finished")
	}
	if index != r.Current {
		return false, errors.Wrapf(models.ErrInvalidArgument, "card %d already answered", index)
	}
	hesitant = now.Sub(r.shownAt) > HesitationThreshold
	if correct {
		r.Correct++
	}
	r.Current++
	r.shownAt = now
	return hesitant, nil
}

// Progress returns how many cards were answered and how many of them correctly
func (r *Run) Progress() (answered, correct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Current, r.Correct
}

// Tracker keeps at most one run per chat
type Tracker struct {
	mu   sync.Mutex
	runs map[int64]*Run
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{runs: make(map[int64]*Run)}
}

// Start replaces the chat's run and returns the one it replaced, if any
func (t *Tracker) Start(chatID int64, run *Run) *Run {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.runs[chatID]
	t.runs[chatID] = run
	return prev
}

// Get returns the chat's run
func (t *Tracker) Get(chatID int64) (*Run, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, ok := t.runs[chatID]
	return run, ok
}

// Remove drops run if it is still the chat's current run and reports whether it did
func (t *Tracker) Remove(chatID int64, run *Run) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.runs[chatID] != run {
		return false
	}
	delete(t.runs, chatID)
	return true
}
