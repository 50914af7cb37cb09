package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quizz-service/internal/app"
	"quizz-service/internal/domain"
	"quizz-service/internal/i18n"
	"quizz-service/internal/infra/postgres"
	infraredis "quizz-service/internal/infra/redis"
)

func TestScoringPersistsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL, []domain.Question{{Title: "Capital of France?", Answer: "Paris"}})

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := infraredis.NewQuestionCache(redisClient, postgres.NewQuestionLoader(pool), 5*time.Minute)
	players := postgres.NewPlayerStore(pool)
	sink := &lineSink{}

	session := bootstrap(t, ctx, questions, players, sink)
	session.Start(ctx)
	session.SubmitAnswer(ctx, "alice", "paris")
	session.Close()

	if got := sink.lines(); len(got) < 2 || got[0] != "Capital of France?" {
		t.Fatalf("unexpected output %q", got)
	}

	stored, err := players.LoadPlayers(ctx)
	if err != nil {
		t.Fatalf("load players: %v", err)
	}
	if len(stored) != 1 || stored[0] != (domain.Player{Name: "alice", Score: 4}) {
		t.Fatalf("expected alice with 4 points, got %+v", stored)
	}

	// A second session resumes the persisted ledger; questions now come from the cache.
	session = bootstrap(t, ctx, questions, players, sink)
	defer session.Close()
	session.Start(ctx)
	session.SubmitAnswer(ctx, "alice", "PARIS")
	if score, _ := session.Ledger().Score("alice"); score != 8 {
		t.Fatalf("expected cumulative score 8, got %d", score)
	}

	// The Redis ledger accepts the same snapshot.
	redisPlayers := infraredis.NewPlayerStore(redisClient)
	if err := redisPlayers.SavePlayers(ctx, session.Ledger().Snapshot()); err != nil {
		t.Fatalf("save redis players: %v", err)
	}
	fromRedis, err := redisPlayers.LoadPlayers(ctx)
	if err != nil || len(fromRedis) != 1 || fromRedis[0].Score != 8 {
		t.Fatalf("expected redis ledger alice=8, got %+v (%v)", fromRedis, err)
	}
}

func bootstrap(t *testing.T, ctx context.Context, questions app.QuestionSource, players app.PlayerStore, sink app.Sink) *app.Session {
	t.Helper()
	msgs, err := i18n.New("en")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	session, err := app.Bootstrap(ctx, questions, players, sink, msgs, app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return session
}

type lineSink struct {
	mu  sync.Mutex
	out []string
}

func (s *lineSink) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, text)
	return nil
}

func (s *lineSink) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.out...)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string, questions []domain.Question) {
	t.Helper()
	db := postgres.OpenBun(dsn)
	defer db.Close()

	// Postgres may accept TCP before it accepts logins.
	var err error
	for i := 0; i < 20; i++ {
		if _, err = postgres.Migrate(ctx, db); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := postgres.ImportQuestions(ctx, db, questions, true); err != nil {
		t.Fatalf("import questions: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
