package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"quizz-service/internal/domain"
	"quizz-service/internal/i18n"
)

// hintRatios is the share of the answer disclosed by each hint tier.
var hintRatios = [...]float64{0, 1.0 / 3, 1.0 / 2}

const (
	maxHints  = len(hintRatios)
	maxPoints = maxHints + 1
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// Timing holds the session cooldowns and delays.
type Timing struct {
	HintCooldown time.Duration
	NextCooldown time.Duration
	RestartDelay time.Duration
	LadderSize   int
	// StopCancelsRestart lets !stop cancel a restart scheduled by an answer or !next.
	StopCancelsRestart bool
}

// DefaultTiming returns the stock quiz rhythm.
func DefaultTiming() Timing {
	return Timing{
		HintCooldown:       10 * time.Second,
		NextCooldown:       15 * time.Second,
		RestartDelay:       15 * time.Second,
		LadderSize:         5,
		StopCancelsRestart: true,
	}
}

type options struct {
	clock  clockwork.Clock
	rnd    *rand.Rand
	logger *slog.Logger
	timing Timing
}

// Option customizes a Session.
type Option func(*options)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithRand fixes the random source used for question draws and reveals.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) { o.rnd = rnd }
}

// WithLogger sets the operator-side logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTiming overrides the cooldowns and delays.
func WithTiming(timing Timing) Option {
	return func(o *options) { o.timing = timing }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
		timing: DefaultTiming(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = newSeededRand()
	}
	return o
}

// Session runs the single active question. Every command is serialized by mu.
type Session struct {
	mu     sync.Mutex
	bank   *QuestionBank
	ledger *Ledger
	reveal *RevealEngine
	sink   Sink
	msgs   *i18n.Catalog
	clock  clockwork.Clock
	logger *slog.Logger
	timing Timing

	active  *domain.ActiveQuestion
	pending *pendingRestart
}

type pendingRestart struct {
	timer clockwork.Timer
	after string
}

// Bootstrap loads questions and players and builds a session. Any load
// failure is returned as a *domain.ConfigurationError.
func Bootstrap(ctx context.Context, questions QuestionSource, players PlayerStore, sink Sink, msgs *i18n.Catalog, opts ...Option) (*Session, error) {
	o := buildOptions(opts)

	bank, err := LoadQuestionBank(ctx, questions, rand.New(rand.NewSource(o.rnd.Int63())))
	if err != nil {
		return nil, &domain.ConfigurationError{Err: err}
	}
	ledger, err := LoadLedger(ctx, players)
	if err != nil {
		return nil, &domain.ConfigurationError{Err: err}
	}
	o.logger.Info("quiz data loaded", "questions", bank.Len(), "players", len(ledger.Snapshot()))
	return newSession(bank, ledger, sink, msgs, o), nil
}

// NewSession builds a session over an already loaded bank and ledger.
func NewSession(bank *QuestionBank, ledger *Ledger, sink Sink, msgs *i18n.Catalog, opts ...Option) *Session {
	return newSession(bank, ledger, sink, msgs, buildOptions(opts))
}

func newSession(bank *QuestionBank, ledger *Ledger, sink Sink, msgs *i18n.Catalog, o options) *Session {
	return &Session{
		bank:   bank,
		ledger: ledger,
		reveal: NewRevealEngine(o.rnd),
		sink:   sink,
		msgs:   msgs,
		clock:  o.clock,
		logger: o.logger,
		timing: o.timing,
	}
}

// State reports whether a question is in progress.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return StateActive
	}
	return StateIdle
}

// Current returns a copy of the active question.
func (s *Session) Current() (domain.ActiveQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.ActiveQuestion{}, false
	}
	cp := *s.active
	cp.Hint.Revealed = make(map[int]struct{}, len(s.active.Hint.Revealed))
	for i := range s.active.Hint.Revealed {
		cp.Hint.Revealed[i] = struct{}{}
	}
	return cp, true
}

// RestartPending reports whether an automatic start is scheduled.
func (s *Session) RestartPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Ledger exposes the score ledger.
func (s *Session) Ledger() *Ledger {
	return s.ledger
}

// Close cancels any scheduled restart.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRestartLocked()
}

// Start asks a new question unless one is already running.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(ctx)
}

func (s *Session) startLocked(ctx context.Context) {
	if s.active != nil {
		s.emit(ctx, s.msgs.T(i18n.AlreadyRunning))
		return
	}
	s.cancelRestartLocked()

	q, ok := s.bank.PickRandom()
	if !ok {
		s.emit(ctx, s.msgs.T(i18n.NoQuestions))
		return
	}

	now := s.clock.Now()
	s.active = &domain.ActiveQuestion{
		Round:     uuid.NewString(),
		Question:  q,
		StartedAt: now,
		Hint:      domain.NewHintState(now),
	}
	s.logger.Info("question started", "round", s.active.Round, "title", q.Title)
	s.emit(ctx, q.Title)
}

// Stop drops the active question.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.active != nil:
		s.logger.Info("question stopped", "round", s.active.Round)
		s.active = nil
		s.cancelRestartLocked()
		s.emit(ctx, s.msgs.T(i18n.Stopped))
	case s.pending != nil && s.timing.StopCancelsRestart:
		s.logger.Info("scheduled restart cancelled", "after", s.pending.after)
		s.cancelRestartLocked()
		s.emit(ctx, s.msgs.T(i18n.Stopped))
	default:
		s.emit(ctx, s.msgs.T(i18n.NotRunning))
	}
}

// Repeat re-emits the active question title.
func (s *Session) Repeat(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.emit(ctx, s.msgs.T(i18n.NotRunning))
		return
	}
	s.emit(ctx, s.active.Question.Title)
}

// Hint reveals more of the answer once the cooldown has elapsed. Inside the
// cooldown the current tier is echoed without escalating.
func (s *Session) Hint(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.emit(ctx, s.msgs.T(i18n.NotRunning))
		return
	}

	hint := &s.active.Hint
	answer := s.active.Question.Answer
	if s.clock.Since(hint.LastHintAt) >= s.timing.HintCooldown {
		if hint.Given >= maxHints {
			s.emit(ctx, s.msgs.T(i18n.NoMoreHints))
			return
		}
		hint.Given++
		hint.LastHintAt = s.clock.Now()
		s.logger.Debug("hint given", "round", s.active.Round, "given", hint.Given)
	}
	s.emit(ctx, s.reveal.Reveal(answer, hint, tierRatio(hint.Given)))
}

func tierRatio(given int) float64 {
	if given <= 0 {
		return hintRatios[0]
	}
	if given > maxHints {
		given = maxHints
	}
	return hintRatios[given-1]
}

// Next gives up on the active question once it has been open long enough.
func (s *Session) Next(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.emit(ctx, s.msgs.T(i18n.NotRunning))
		return
	}
	if s.clock.Since(s.active.StartedAt) < s.timing.NextCooldown {
		s.emit(ctx, s.msgs.T(i18n.TooSoon))
		return
	}

	ended := s.active
	s.active = nil
	s.logger.Info("question skipped", "round", ended.Round)
	s.emit(ctx, s.msgs.Td(i18n.AnswerWas, map[string]any{"Answer": ended.Question.Answer}))
	s.emit(ctx, s.nextInMessage())
	s.scheduleRestartLocked(ended.Round)
}

// SubmitAnswer scores name when text matches the active answer. Anything else,
// including submissions for a question that already ended, is ignored.
func (s *Session) SubmitAnswer(ctx context.Context, name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	guess := Normalize(text)
	if guess == "" || guess != Normalize(s.active.Question.Answer) {
		return
	}

	ended := s.active
	s.active = nil
	points := maxPoints - ended.Hint.Given

	s.emit(ctx, s.msgs.Td(i18n.Congrats, map[string]any{
		"Name":   name,
		"Answer": ended.Question.Answer,
		"Points": points,
	}))
	s.emit(ctx, s.nextInMessage())
	s.scheduleRestartLocked(ended.Round)

	total, err := s.ledger.Award(ctx, name, points)
	if err != nil {
		s.logger.Error("ledger save failed", "round", ended.Round, "player", name, "error", err)
	}
	s.logger.Info("question answered", "round", ended.Round, "player", name, "points", points, "total", total)
}

// Help lists the available commands.
func (s *Session) Help(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range i18n.HelpLines {
		s.emit(ctx, s.msgs.T(id))
	}
}

// Ladder emits the best players, one line each.
func (s *Session) Ladder(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.ledger.Top(s.timing.LadderSize) {
		s.emit(ctx, s.msgs.Td(i18n.LadderLine, map[string]any{
			"Rank":  e.Rank,
			"Name":  e.Name,
			"Score": e.Score,
		}))
	}
}

func (s *Session) nextInMessage() string {
	return s.msgs.Td(i18n.NextIn, map[string]any{"Seconds": int(s.timing.RestartDelay / time.Second)})
}

func (s *Session) scheduleRestartLocked(after string) {
	s.cancelRestartLocked()
	p := &pendingRestart{after: after}
	p.timer = s.clock.AfterFunc(s.timing.RestartDelay, func() { s.fireRestart(p) })
	s.pending = p
}

// fireRestart runs when a scheduled restart elapses. It does nothing if the
// restart was cancelled or superseded, or if a question is already running.
func (s *Session) fireRestart(p *pendingRestart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != p {
		return
	}
	s.pending = nil
	if s.active != nil {
		return
	}
	s.startLocked(context.Background())
}

func (s *Session) cancelRestartLocked() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending = nil
}

func (s *Session) emit(ctx context.Context, text string) {
	if err := s.sink.Send(ctx, text); err != nil {
		s.logger.Warn("sink send failed", "error", err)
	}
}
