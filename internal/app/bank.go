package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quizz-service/internal/domain"
)

// QuestionSource loads the question pool (file, Postgres, cache, etc).
type QuestionSource interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank holds the loaded pool and supplies random draws with replacement.
type QuestionBank struct {
	mu        sync.Mutex
	questions []domain.Question
	rnd       *rand.Rand
}

// NewQuestionBank wraps an already validated pool.
func NewQuestionBank(questions []domain.Question, rnd *rand.Rand) *QuestionBank {
	if rnd == nil {
		rnd = newSeededRand()
	}
	pool := make([]domain.Question, len(questions))
	copy(pool, questions)
	return &QuestionBank{questions: pool, rnd: rnd}
}

// LoadQuestionBank reads src once and validates every record.
func LoadQuestionBank(ctx context.Context, src QuestionSource, rnd *rand.Rand) (*QuestionBank, error) {
	questions, err := src.LoadQuestions(ctx)
	if err != nil {
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &domain.LoadError{Source: "questions", Err: err}
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, &domain.LoadError{Source: "questions", Err: err}
	}
	return NewQuestionBank(questions, rnd), nil
}

// ValidateQuestions rejects records with an empty title or answer.
func ValidateQuestions(questions []domain.Question) error {
	for i, q := range questions {
		if strings.TrimSpace(q.Title) == "" || strings.TrimSpace(q.Answer) == "" {
			return fmt.Errorf("question %d: %w", i, domain.ErrMalformedQuestion)
		}
	}
	return nil
}

// PickRandom draws uniformly from the pool; repeats are possible.
func (b *QuestionBank) PickRandom() (domain.Question, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.questions) == 0 {
		return domain.Question{}, false
	}
	return b.questions[b.rnd.Intn(len(b.questions))], true
}

// IsEmpty reports whether the pool has no questions.
func (b *QuestionBank) IsEmpty() bool {
	return b.Len() == 0
}

// Len returns the pool size.
func (b *QuestionBank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions)
}

func newSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
