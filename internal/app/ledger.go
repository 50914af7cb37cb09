package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"quizz-service/internal/domain"
)

// PlayerStore persists the ledger as a whole snapshot.
type PlayerStore interface {
	LoadPlayers(ctx context.Context) ([]domain.Player, error)
	SavePlayers(ctx context.Context, players []domain.Player) error
}

// Ledger maps player names to cumulative scores. Entries keep their insertion
// order, which is the tie-break order of the ladder.
type Ledger struct {
	mu      sync.Mutex
	players []domain.Player
	index   map[string]int
	store   PlayerStore
}

// LoadLedger reads the persisted snapshot. Duplicate names are merged into the
// first occurrence; negative scores are rejected.
func LoadLedger(ctx context.Context, store PlayerStore) (*Ledger, error) {
	players, err := store.LoadPlayers(ctx)
	if err != nil {
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &domain.LoadError{Source: "players", Err: err}
	}
	for i, p := range players {
		if p.Score < 0 {
			return nil, &domain.LoadError{Source: "players", Err: fmt.Errorf("player %d (%q): negative score %d", i, p.Name, p.Score)}
		}
	}
	return NewLedger(players, store), nil
}

// NewLedger seeds a ledger from players. store may be nil for a ledger that never persists.
func NewLedger(players []domain.Player, store PlayerStore) *Ledger {
	l := &Ledger{
		players: make([]domain.Player, 0, len(players)),
		index:   make(map[string]int, len(players)),
		store:   store,
	}
	for _, p := range players {
		if i, ok := l.index[p.Name]; ok {
			l.players[i].Score += p.Score
			continue
		}
		l.index[p.Name] = len(l.players)
		l.players = append(l.players, p)
	}
	return l
}

// Award adds points to name, inserting the player if unknown, then persists
// the full snapshot. The in-memory update survives a failed save; the error
// is returned as a *domain.SaveError.
func (l *Ledger) Award(ctx context.Context, name string, points int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int
	if i, ok := l.index[name]; ok {
		l.players[i].Score += points
		total = l.players[i].Score
	} else {
		l.index[name] = len(l.players)
		l.players = append(l.players, domain.Player{Name: name, Score: points})
		total = points
	}

	if l.store == nil {
		return total, nil
	}
	// Saving under the lock keeps snapshots ordered with their updates.
	if err := l.store.SavePlayers(ctx, l.snapshotLocked()); err != nil {
		var saveErr *domain.SaveError
		if errors.As(err, &saveErr) {
			return total, err
		}
		return total, &domain.SaveError{Target: "players", Err: err}
	}
	return total, nil
}

// Score returns the current score of name.
func (l *Ledger) Score(name string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[name]
	if !ok {
		return 0, false
	}
	return l.players[i].Score, true
}

// Snapshot returns a copy of all entries in insertion order.
func (l *Ledger) Snapshot() []domain.Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Top returns at most n entries by descending score. Equal scores keep their
// ledger order. The ledger itself is never reordered.
func (l *Ledger) Top(n int) []domain.LadderEntry {
	ranked := l.Snapshot()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	entries := make([]domain.LadderEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, domain.LadderEntry{Rank: i + 1, Name: p.Name, Score: p.Score})
	}
	return entries
}

func (l *Ledger) snapshotLocked() []domain.Player {
	out := make([]domain.Player, len(l.players))
	copy(out, l.players)
	return out
}
