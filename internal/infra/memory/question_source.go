package memory

import (
	"context"

	"quizz-service/internal/domain"
)

// QuestionSource is a simple source backed by a fixed slice (useful for tests/demos).
type QuestionSource struct {
	questions []domain.Question
}

func NewQuestionSource(questions ...domain.Question) *QuestionSource {
	return &QuestionSource{questions: questions}
}

func (s *QuestionSource) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}
