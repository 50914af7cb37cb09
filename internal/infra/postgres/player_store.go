package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizz-service/internal/domain"
)

// PlayerStore keeps the ledger in the players table. Each save replaces the
// whole snapshot inside one transaction.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func (s *PlayerStore) LoadPlayers(ctx context.Context) ([]domain.Player, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, score FROM players ORDER BY position`)
	if err != nil {
		return nil, &domain.LoadError{Source: "postgres players", Err: fmt.Errorf("query players: %w", err)}
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.Name, &p.Score); err != nil {
			return nil, &domain.LoadError{Source: "postgres players", Err: fmt.Errorf("scan player: %w", err)}
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.LoadError{Source: "postgres players", Err: err}
	}
	return players, nil
}

func (s *PlayerStore) SavePlayers(ctx context.Context, players []domain.Player) error {
	rows := make([][]interface{}, 0, len(players))
	for i, p := range players {
		rows = append(rows, []interface{}{p.Name, p.Score, i})
	}

	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM players`); err != nil {
			return fmt.Errorf("clear players: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"players"}, []string{"name", "score", "position"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy players: %w", err)
		}
		return nil
	})
	if err != nil {
		return &domain.SaveError{Target: "postgres players", Err: err}
	}
	return nil
}
