package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"quizz-service/internal/domain"
)

// PlayerStore keeps the ledger as a JSON array of {"name", "score"} records.
// A missing file is an empty ledger; it is created on the first save.
type PlayerStore struct {
	path string
}

func NewPlayerStore(path string) *PlayerStore {
	return &PlayerStore{path: path}
}

func (s *PlayerStore) LoadPlayers(_ context.Context) ([]domain.Player, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.LoadError{Source: s.path, Err: err}
	}
	var players []domain.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, &domain.LoadError{Source: s.path, Err: fmt.Errorf("unmarshal players: %w", err)}
	}
	return players, nil
}

// SavePlayers replaces the file atomically: readers see either the previous
// snapshot or the new one, never a partial write.
func (s *PlayerStore) SavePlayers(_ context.Context, players []domain.Player) error {
	if players == nil {
		players = []domain.Player{}
	}
	data, err := json.Marshal(players)
	if err != nil {
		return &domain.SaveError{Target: s.path, Err: err}
	}
	if err := writeAtomic(s.path, data); err != nil {
		return &domain.SaveError{Target: s.path, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
