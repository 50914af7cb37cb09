package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizz-service/internal/domain"
)

// QuestionLoader loads the question pool from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT title, answer FROM questions ORDER BY id`)
	if err != nil {
		return nil, &domain.LoadError{Source: "postgres questions", Err: fmt.Errorf("query questions: %w", err)}
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.Title, &q.Answer); err != nil {
			return nil, &domain.LoadError{Source: "postgres questions", Err: fmt.Errorf("scan question: %w", err)}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.LoadError{Source: "postgres questions", Err: err}
	}
	return questions, nil
}
