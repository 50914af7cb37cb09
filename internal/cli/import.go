package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizz-service/internal/app"
	"quizz-service/internal/config"
	"quizz-service/internal/infra/file"
	"quizz-service/internal/infra/postgres"
)

// NewImportQuestionsCmd loads a questions JSON file into Postgres.
func NewImportQuestionsCmd(configPath *string) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import-questions FILE",
		Short: "Import a questions JSON file into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, args[0], replace)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "truncate the existing questions first")
	return cmd
}

func runImport(ctx context.Context, configPath, path string, replace bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
		return err
	}

	questions, err := file.NewQuestionSource(path).LoadQuestions(ctx)
	if err != nil {
		return err
	}
	if err := app.ValidateQuestions(questions); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	db := postgres.OpenBun(cfg.Postgres.URL)
	defer db.Close()

	n, err := postgres.ImportQuestions(ctx, db, questions, replace)
	if err != nil {
		return err
	}
	logger.Info("questions imported", "file", path, "count", n, "replace", replace)
	return nil
}
