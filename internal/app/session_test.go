package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizz-service/internal/app"
	"quizz-service/internal/domain"
	"quizz-service/internal/i18n"
	"quizz-service/internal/infra/memory"
)

var paris = domain.Question{Title: "Capital of France?", Answer: "Paris"}

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
	return nil
}

func (s *recordingSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *recordingSink) Last() string {
	lines := s.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

type harness struct {
	session *app.Session
	sink    *recordingSink
	clock   *clockwork.FakeClock
	store   *memory.PlayerStore
}

func newHarness(t *testing.T, questions []domain.Question, opts ...app.Option) *harness {
	t.Helper()
	msgs, err := i18n.New("en")
	require.NoError(t, err)

	h := &harness{
		sink:  &recordingSink{},
		clock: clockwork.NewFakeClock(),
		store: memory.NewPlayerStore(),
	}
	base := []app.Option{
		app.WithClock(h.clock),
		app.WithRand(rand.New(rand.NewSource(1))),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	h.session, err = app.Bootstrap(context.Background(), memory.NewQuestionSource(questions...), h.store, h.sink, msgs, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(h.session.Close)
	return h
}

func TestScenarioCapitalOfFrance(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	assert.Equal(t, []string{"Capital of France?"}, h.sink.Lines())
	assert.Equal(t, app.StateActive, h.session.State())

	h.sink.Reset()
	h.session.SubmitAnswer(ctx, "alice", "paris")

	assert.Equal(t, []string{
		"Well done alice! The answer was: Paris. (+4 points)",
		"Next question in 15 seconds.",
	}, h.sink.Lines())
	assert.Equal(t, app.StateIdle, h.session.State())
	assert.True(t, h.session.RestartPending())
	assert.Equal(t, []domain.Player{{Name: "alice", Score: 4}}, h.session.Ledger().Snapshot())
	assert.Equal(t, 1, h.store.Saves())
}

func TestAnswerMatchingIgnoresAccentsAndCase(t *testing.T) {
	h := newHarness(t, []domain.Question{{Title: "Largest land animal?", Answer: "Éléphant"}})
	ctx := context.Background()

	h.session.Start(ctx)
	h.session.SubmitAnswer(ctx, "bob", "elephants")
	h.session.SubmitAnswer(ctx, "bob", "")
	assert.Equal(t, app.StateActive, h.session.State(), "non-matching messages are ignored")

	h.session.SubmitAnswer(ctx, "bob", "  ELEPHANT ")
	assert.Equal(t, app.StateIdle, h.session.State())
	score, ok := h.session.Ledger().Score("bob")
	assert.True(t, ok)
	assert.Equal(t, 4, score)
}

func TestStartWithEmptyBank(t *testing.T) {
	h := newHarness(t, nil)

	h.session.Start(context.Background())

	assert.Equal(t, []string{"I don't have any questions left."}, h.sink.Lines())
	assert.Equal(t, app.StateIdle, h.session.State())
}

func TestStartWhileActiveKeepsQuestion(t *testing.T) {
	h := newHarness(t, []domain.Question{paris, {Title: "2 + 2?", Answer: "4"}})
	ctx := context.Background()

	h.session.Start(ctx)
	h.clock.Advance(10 * time.Second)
	h.session.Hint(ctx)
	before, ok := h.session.Current()
	require.True(t, ok)

	h.sink.Reset()
	h.session.Start(ctx)

	assert.Equal(t, []string{"I'm already asking questions."}, h.sink.Lines())
	after, ok := h.session.Current()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestCommandsWhileIdle(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Stop(ctx)
	h.session.Repeat(ctx)
	h.session.Hint(ctx)
	h.session.Next(ctx)
	h.session.SubmitAnswer(ctx, "alice", "Paris")

	notRunning := "I'm not asking any question right now."
	assert.Equal(t, []string{notRunning, notRunning, notRunning, notRunning}, h.sink.Lines())
	assert.Empty(t, h.session.Ledger().Snapshot())
}

func TestRepeatAndStop(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	h.session.Repeat(ctx)
	h.session.Stop(ctx)
	h.session.SubmitAnswer(ctx, "alice", "Paris")

	assert.Equal(t, []string{
		"Capital of France?",
		"Capital of France?",
		"I see the uncultured no longer wish to improve their culture.",
	}, h.sink.Lines())
	assert.Equal(t, app.StateIdle, h.session.State())
	assert.False(t, h.session.RestartPending())
	assert.Empty(t, h.session.Ledger().Snapshot())
}

func TestHintWithinCooldownEchoes(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	h.sink.Reset()
	h.session.Hint(ctx)
	h.session.Hint(ctx)

	assert.Equal(t, []string{"*****", "*****"}, h.sink.Lines())
	current, _ := h.session.Current()
	assert.Equal(t, 0, current.Hint.Given)
}

func TestHintTiersAndScoring(t *testing.T) {
	answer := "Abcdefghijkl"
	h := newHarness(t, []domain.Question{{Title: "Alphabet?", Answer: answer}})
	ctx := context.Background()
	h.session.Start(ctx)

	wantRevealed := []int{0, 4, 6}
	var previous string
	for tier, want := range wantRevealed {
		h.clock.Advance(10 * time.Second)
		h.session.Hint(ctx)

		current, _ := h.session.Current()
		assert.Equal(t, tier+1, current.Hint.Given)
		assert.Len(t, current.Hint.Revealed, want)
		assert.Equal(t, want, len(answer)-strings.Count(h.sink.Last(), "*"))

		// Inside the cooldown the same hint comes back.
		previous = h.sink.Last()
		h.session.Hint(ctx)
		assert.Equal(t, previous, h.sink.Last())
	}

	h.clock.Advance(10 * time.Second)
	h.session.Hint(ctx)
	assert.Equal(t, "No further help available.", h.sink.Last())
	current, _ := h.session.Current()
	assert.Equal(t, 3, current.Hint.Given)

	h.session.SubmitAnswer(ctx, "carol", answer)
	score, _ := h.session.Ledger().Score("carol")
	assert.Equal(t, 1, score)
}

func TestNextRequiresCooldownThenRestarts(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	h.clock.Advance(14 * time.Second)
	h.session.Next(ctx)
	assert.Equal(t, "Try searching a bit first, it could be interesting.", h.sink.Last())
	assert.Equal(t, app.StateActive, h.session.State())

	h.clock.Advance(time.Second)
	h.sink.Reset()
	h.session.Next(ctx)
	assert.Equal(t, []string{"The answer was: Paris.", "Next question in 15 seconds."}, h.sink.Lines())
	assert.Equal(t, app.StateIdle, h.session.State())

	h.sink.Reset()
	h.clock.Advance(15 * time.Second)
	require.Eventually(t, func() bool {
		return h.session.State() == app.StateActive
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Capital of France?"}, h.sink.Lines())
	assert.False(t, h.session.RestartPending())
}

func TestLateDuplicateAnswerIgnored(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	h.session.SubmitAnswer(ctx, "alice", "Paris")
	h.session.SubmitAnswer(ctx, "bob", "Paris")

	assert.Equal(t, []domain.Player{{Name: "alice", Score: 4}}, h.session.Ledger().Snapshot())
}

func TestConcurrentAnswersScoreOnce(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()
	h.session.Start(ctx)

	var wg sync.WaitGroup
	for _, name := range []string{"alice", "bob", "carol", "dave", "erin", "frank"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			h.session.SubmitAnswer(ctx, name, "paris")
		}(name)
	}
	wg.Wait()

	players := h.session.Ledger().Snapshot()
	require.Len(t, players, 1)
	assert.Equal(t, 4, players[0].Score)
	assert.Equal(t, 1, h.store.Saves())
}

func TestStopCancelsPendingRestart(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	h.session.SubmitAnswer(ctx, "alice", "Paris")
	h.sink.Reset()
	h.session.Stop(ctx)
	assert.Equal(t, []string{"I see the uncultured no longer wish to improve their culture."}, h.sink.Lines())
	assert.False(t, h.session.RestartPending())

	h.clock.Advance(time.Minute)
	assert.Never(t, func() bool {
		return h.session.State() == app.StateActive
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestStopKeepsPendingRestartWhenConfigured(t *testing.T) {
	timing := app.DefaultTiming()
	timing.StopCancelsRestart = false
	h := newHarness(t, []domain.Question{paris}, app.WithTiming(timing))
	ctx := context.Background()

	h.session.Start(ctx)
	h.session.SubmitAnswer(ctx, "alice", "Paris")
	h.sink.Reset()
	h.session.Stop(ctx)
	assert.Equal(t, []string{"I'm not asking any question right now."}, h.sink.Lines())

	h.clock.Advance(15 * time.Second)
	require.Eventually(t, func() bool {
		return h.session.State() == app.StateActive
	}, time.Second, 5*time.Millisecond)
}

func TestManualStartSupersedesPendingRestart(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()

	h.session.Start(ctx)
	h.session.SubmitAnswer(ctx, "alice", "Paris")
	h.session.Start(ctx)
	assert.False(t, h.session.RestartPending())
	h.session.Stop(ctx)
	h.sink.Reset()

	h.clock.Advance(time.Minute)
	assert.Never(t, func() bool {
		return len(h.sink.Lines()) > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestLadder(t *testing.T) {
	h := newHarness(t, []domain.Question{paris})
	ctx := context.Background()
	for _, p := range []struct {
		name   string
		points int
	}{{"a", 3}, {"b", 5}, {"c", 3}, {"d", 1}, {"e", 5}, {"f", 9}} {
		_, err := h.session.Ledger().Award(ctx, p.name, p.points)
		require.NoError(t, err)
	}

	h.session.Ladder(ctx)

	assert.Equal(t, []string{"1. f (9)", "2. b (5)", "3. e (5)", "4. a (3)", "5. c (3)"}, h.sink.Lines())
}

func TestHelp(t *testing.T) {
	h := newHarness(t, nil)

	h.session.Help(context.Background())

	lines := h.sink.Lines()
	require.Len(t, lines, len(i18n.HelpLines))
	assert.Equal(t, "!start - ask a new question", lines[0])
}

type failingStore struct{ memory.PlayerStore }

func (*failingStore) SavePlayers(context.Context, []domain.Player) error {
	return errors.New("disk full")
}

func TestSaveFailureKeepsSessionRunning(t *testing.T) {
	msgs, err := i18n.New("en")
	require.NoError(t, err)
	sink := &recordingSink{}
	clock := clockwork.NewFakeClock()
	session, err := app.Bootstrap(context.Background(), memory.NewQuestionSource(paris), &failingStore{}, sink, msgs,
		app.WithClock(clock), app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer session.Close()

	session.Start(context.Background())
	session.SubmitAnswer(context.Background(), "alice", "Paris")

	score, ok := session.Ledger().Score("alice")
	assert.True(t, ok)
	assert.Equal(t, 4, score)
	assert.True(t, session.RestartPending())
}

type brokenSource struct{}

func (brokenSource) LoadQuestions(context.Context) ([]domain.Question, error) {
	return nil, errors.New("unexpected end of JSON input")
}

func TestBootstrapFailsOnLoadError(t *testing.T) {
	msgs, err := i18n.New("en")
	require.NoError(t, err)

	_, err = app.Bootstrap(context.Background(), brokenSource{}, memory.NewPlayerStore(), &recordingSink{}, msgs)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	var loadErr *domain.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestSinkFailureDoesNotBlockCommands(t *testing.T) {
	msgs, err := i18n.New("en")
	require.NoError(t, err)
	var calls int
	sink := app.SinkFunc(func(context.Context, string) error {
		calls++
		return errors.New("connection reset")
	})
	session, err := app.Bootstrap(context.Background(), memory.NewQuestionSource(paris), memory.NewPlayerStore(), sink, msgs,
		app.WithClock(clockwork.NewFakeClock()), app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer session.Close()

	session.Start(context.Background())
	session.SubmitAnswer(context.Background(), "alice", "paris")

	assert.Equal(t, 3, calls)
	score, _ := session.Ledger().Score("alice")
	assert.Equal(t, 4, score)
}
