// Package quiz builds multiple-choice cards and tracks study runs in progress.
package quiz

import (
	"math/rand"
	"strings"

	"github.com/example/civicsbot/pkg/models"
)

// DefaultOptionCount is the number of choices shown per card
const DefaultOptionCount = 4

// Card is one question as presented to the learner.
// Flashcards have no options; the learner grades their own recall.
type Card struct {
	Question     models.Question
	Options      []string
	CorrectIndex int
}

// IsCorrect reports whether choice is the right option
func (c Card) IsCorrect(choice int) bool {
	return len(c.Options) > 0 && choice == c.CorrectIndex
}

// Builder creates cards with its own seeded generator, so a seed always yields the same quiz.
// A Builder is not safe for concurrent use.
type Builder struct {
	rnd         *rand.Rand
	OptionCount int
}

// NewBuilder creates a builder seeded with seed
func NewBuilder(seed int64) *Builder {
	return &Builder{
		rnd:         rand.New(rand.NewSource(seed)),
		OptionCount: DefaultOptionCount,
	}
}

// Flashcards wraps questions as self-graded cards, keeping their order
func Flashcards(questions []models.Question) []Card {
	cards := make([]Card, len(questions))
	for i, q := range questions {
		cards[i] = Card{Question: q, CorrectIndex: -1}
	}
	return cards
}

// MultipleChoice builds a card for each question, keeping their order.
// Wrong options come from the same category first, then from the rest of bank.
func (b *Builder) MultipleChoice(questions, bank []models.Question) []Card {
	cards := make([]Card, 0, len(questions))
	for _, q := range questions {
		options := append(b.distractors(q, bank, b.OptionCount-1), q.Answer)
		correctIndex := len(options) - 1

		b.rnd.Shuffle(len(options), func(i, j int) {
			if i == correctIndex {
				correctIndex = j
			} else if j == correctIndex {
				correctIndex = i
			}
			options[i], options[j] = options[j], options[i]
		})

		cards = append(cards, Card{Question: q, Options: options, CorrectIndex: correctIndex})
	}
	return cards
}

// Sample picks count random questions from bank without repeats
func (b *Builder) Sample(bank []models.Question, count int) []models.Question {
	if count > len(bank) {
		count = len(bank)
	}
	out := make([]models.Question, 0, count)
	for _, i := range b.rnd.Perm(len(bank))[:count] {
		out = append(out, bank[i])
	}
	return out
}

// distractors gets n distinct wrong answers for q
func (b *Builder) distractors(q models.Question, bank []models.Question, n int) []string {
	if n <= 0 {
		return nil
	}

	used := map[string]bool{normalize(q.Answer): true}
	var sameCategory, otherCategory []string
	for _, other := range bank {
		key := normalize(other.Answer)
		if other.ID == q.ID || used[key] {
			continue
		}
		used[key] = true
		if other.Category == q.Category {
			sameCategory = append(sameCategory, other.Answer)
		} else {
			otherCategory = append(otherCategory, other.Answer)
		}
	}

	b.rnd.Shuffle(len(sameCategory), func(i, j int) {
		sameCategory[i], sameCategory[j] = sameCategory[j], sameCategory[i]
	})
	b.rnd.Shuffle(len(otherCategory), func(i, j int) {
		otherCategory[i], otherCategory[j] = otherCategory[j], otherCategory[i]
	})

	options := make([]string, 0, n)
	for _, pool := range [][]string{sameCategory, otherCategory} {
		for _, answer := range pool {
			if len(options) == n {
				return options
			}
			options = append(options, answer)
		}
	}
	return options
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
