package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"quizz-service/internal/domain"
)

// PlayerStore keeps the ledger in two keys written in one MULTI/EXEC:
//
//	RPUSH quizz:ledger:order  {name...}          (ledger order, used for tie-breaks)
//	HSET  quizz:ledger:scores {name} {score}...
type PlayerStore struct {
	client *redis.Client
	prefix string
}

func NewPlayerStore(client *redis.Client) *PlayerStore {
	return &PlayerStore{client: client, prefix: "quizz:ledger"}
}

func (s *PlayerStore) LoadPlayers(ctx context.Context) ([]domain.Player, error) {
	names, err := s.client.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, &domain.LoadError{Source: s.orderKey(), Err: err}
	}
	if len(names) == 0 {
		return nil, nil
	}

	scores, err := s.client.HMGet(ctx, s.scoresKey(), names...).Result()
	if err != nil {
		return nil, &domain.LoadError{Source: s.scoresKey(), Err: err}
	}

	players := make([]domain.Player, 0, len(names))
	for i, name := range names {
		raw, ok := scores[i].(string)
		if !ok {
			return nil, &domain.LoadError{Source: s.scoresKey(), Err: fmt.Errorf("no score for player %q", name)}
		}
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &domain.LoadError{Source: s.scoresKey(), Err: fmt.Errorf("score for player %q: %w", name, err)}
		}
		players = append(players, domain.Player{Name: name, Score: score})
	}
	return players, nil
}

func (s *PlayerStore) SavePlayers(ctx context.Context, players []domain.Player) error {
	names := make([]interface{}, 0, len(players))
	fields := make([]interface{}, 0, 2*len(players))
	for _, p := range players {
		names = append(names, p.Name)
		fields = append(fields, p.Name, p.Score)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.orderKey(), s.scoresKey())
		if len(players) > 0 {
			pipe.RPush(ctx, s.orderKey(), names...)
			pipe.HSet(ctx, s.scoresKey(), fields...)
		}
		return nil
	})
	if err != nil {
		return &domain.SaveError{Target: s.prefix, Err: err}
	}
	return nil
}

func (s *PlayerStore) orderKey() string {
	return s.prefix + ":order"
}

func (s *PlayerStore) scoresKey() string {
	return s.prefix + ":scores"
}
