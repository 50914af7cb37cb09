package memory

import (
	"context"
	"sync"

	"quizz-service/internal/domain"
)

// PlayerStore keeps the last saved ledger snapshot in memory.
type PlayerStore struct {
	mu      sync.RWMutex
	players []domain.Player
	saves   int
}

func NewPlayerStore(players ...domain.Player) *PlayerStore {
	return &PlayerStore{players: players}
}

func (s *PlayerStore) LoadPlayers(_ context.Context) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlayers(s.players), nil
}

func (s *PlayerStore) SavePlayers(_ context.Context, players []domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = clonePlayers(players)
	s.saves++
	return nil
}

// Saves returns how many snapshots were written.
func (s *PlayerStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func clonePlayers(players []domain.Player) []domain.Player {
	out := make([]domain.Player, len(players))
	copy(out, players)
	return out
}
