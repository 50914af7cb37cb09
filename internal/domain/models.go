package domain

import "time"

// Question is a single title/answer pair. Questions are immutable once loaded.
type Question struct {
	Title  string `json:"title"`
	Answer string `json:"answer"`
}

// Player is a ledger entry keyed by its exact, case-sensitive name.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// HintState tracks how much of the active answer has been disclosed.
type HintState struct {
	Given      int
	LastHintAt time.Time
	// Revealed holds rune indices of alphanumeric answer positions already shown.
	Revealed map[int]struct{}
}

// NewHintState returns a hint state whose cooldown starts at startedAt.
func NewHintState(startedAt time.Time) HintState {
	return HintState{
		LastHintAt: startedAt,
		Revealed:   make(map[int]struct{}),
	}
}

// ActiveQuestion is the single in-progress question.
type ActiveQuestion struct {
	Round     string
	Question  Question
	StartedAt time.Time
	Hint      HintState
}

// LadderEntry is a ranked view of a player.
type LadderEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
