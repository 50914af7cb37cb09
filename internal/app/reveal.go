package app

import (
	"math"
	"math/rand"
	"strings"
	"unicode"

	"quizz-service/internal/domain"
)

const maskRune = '*'

// RevealEngine discloses answer characters progressively. Positions picked for
// a hint state stay picked, so a larger ratio only ever adds characters.
// It is not safe for concurrent use; the session serializes access.
type RevealEngine struct {
	rnd *rand.Rand
}

// NewRevealEngine builds an engine drawing from rnd. A nil rnd gets a time-seeded source.
func NewRevealEngine(rnd *rand.Rand) *RevealEngine {
	if rnd == nil {
		rnd = newSeededRand()
	}
	return &RevealEngine{rnd: rnd}
}

// Mask normalizes answer and replaces every alphanumeric character with '*'.
func Mask(answer string) string {
	src := []rune(strings.TrimSpace(answer))
	out := make([]rune, len(src))
	for i, r := range src {
		if isRevealable(r) {
			out[i] = maskRune
			continue
		}
		out[i] = unicode.ToLower(r)
	}
	return string(out)
}

// AlphabeticLength counts the revealable characters of answer.
func AlphabeticLength(answer string) int {
	n := 0
	for _, r := range strings.TrimSpace(answer) {
		if isRevealable(r) {
			n++
		}
	}
	return n
}

// Reveal grows hint.Revealed to min(floor(ratio*L), L) positions, where L is
// the alphabetic length of answer, and renders the mask with those positions
// replaced by the original characters.
func (e *RevealEngine) Reveal(answer string, hint *domain.HintState, ratio float64) string {
	src := []rune(strings.TrimSpace(answer))
	if hint.Revealed == nil {
		hint.Revealed = make(map[int]struct{})
	}

	candidates := make([]int, 0, len(src))
	alphabetic := 0
	for i, r := range src {
		if !isRevealable(r) {
			continue
		}
		alphabetic++
		if _, ok := hint.Revealed[i]; !ok {
			candidates = append(candidates, i)
		}
	}

	target := revealTarget(ratio, alphabetic)
	for len(hint.Revealed) < target && len(candidates) > 0 {
		j := e.rnd.Intn(len(candidates))
		hint.Revealed[candidates[j]] = struct{}{}
		candidates[j] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
	}

	out := []rune(Mask(answer))
	for i := range hint.Revealed {
		if i < len(out) {
			out[i] = src[i]
		}
	}
	return string(out)
}

func revealTarget(ratio float64, alphabetic int) int {
	if ratio <= 0 || alphabetic == 0 {
		return 0
	}
	target := int(math.Floor(ratio * float64(alphabetic)))
	if target > alphabetic {
		return alphabetic
	}
	return target
}
