package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizz-service/internal/app"
	"quizz-service/internal/config"
	"quizz-service/internal/i18n"
	"quizz-service/internal/infra/file"
	"quizz-service/internal/infra/memory"
	"quizz-service/internal/infra/postgres"
	redisstore "quizz-service/internal/infra/redis"
	"quizz-service/internal/logging"
	"quizz-service/internal/transport/console"
)

// NewPlayCmd runs a quiz session on the console: chat lines in, quiz lines out.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run a quiz session reading \"nick: message\" lines from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runPlay(ctx context.Context, configPath string, in io.Reader, out, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, logOut)

	msgs, err := i18n.New(cfg.Quiz.Language)
	if err != nil {
		return err
	}

	deps, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	session, err := app.Bootstrap(ctx, deps.questions, deps.players, console.NewWriterSink(out), msgs,
		app.WithLogger(logger),
		app.WithTiming(timingFromConfig(cfg)),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- console.Run(ctx, in, console.NewDispatcher(session))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-done:
		logger.Info("input closed, stopping quiz")
		return err
	case <-stop:
		logger.Info("shutting down quiz...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down quiz...")
	}
	return nil
}

type stores struct {
	questions app.QuestionSource
	players   app.PlayerStore
	closers   []func()
}

func (s stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	var deps stores

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.closers = append(deps.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Questions.Backend == config.BackendPostgres || cfg.Players.Backend == config.BackendPostgres {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			deps.close()
			return stores{}, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			deps.close()
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		deps.closers = append(deps.closers, pool.Close)
	}

	switch cfg.Questions.Backend {
	case config.BackendPostgres:
		var loader redisstore.QuestionLoader = postgres.NewQuestionLoader(pool)
		if redisClient != nil {
			loader = redisstore.NewQuestionCache(redisClient, loader, config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute))
		}
		deps.questions = loader
	default:
		deps.questions = file.NewQuestionSource(cfg.Questions.File)
	}

	switch cfg.Players.Backend {
	case config.BackendMemory:
		deps.players = memory.NewPlayerStore()
	case config.BackendRedis:
		deps.players = redisstore.NewPlayerStore(redisClient)
	case config.BackendPostgres:
		deps.players = postgres.NewPlayerStore(pool)
	default:
		deps.players = file.NewPlayerStore(cfg.Players.File)
	}

	logger.Info("stores configured", "questions", cfg.Questions.Backend, "players", cfg.Players.Backend)
	return deps, nil
}

func timingFromConfig(cfg config.Config) app.Timing {
	t := app.DefaultTiming()
	t.HintCooldown = config.TTLDuration(cfg.Quiz.HintCooldown, t.HintCooldown)
	t.NextCooldown = config.TTLDuration(cfg.Quiz.NextCooldown, t.NextCooldown)
	t.RestartDelay = config.TTLDuration(cfg.Quiz.RestartDelay, t.RestartDelay)
	if cfg.Quiz.LadderSize > 0 {
		t.LadderSize = cfg.Quiz.LadderSize
	}
	if cfg.Quiz.StopCancelsRestart != nil {
		t.StopCancelsRestart = *cfg.Quiz.StopCancelsRestart
	}
	return t
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
}

var _ console.Commands = (*app.Session)(nil)
