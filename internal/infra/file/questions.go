package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"quizz-service/internal/domain"
)

// QuestionSource reads a JSON array of {"title", "answer"} records.
type QuestionSource struct {
	path string
}

func NewQuestionSource(path string) *QuestionSource {
	return &QuestionSource{path: path}
}

func (s *QuestionSource) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &domain.LoadError{Source: s.path, Err: err}
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, &domain.LoadError{Source: s.path, Err: fmt.Errorf("unmarshal questions: %w", err)}
	}
	return questions, nil
}
