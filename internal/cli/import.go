package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/config"
	"trivia-quiz-server/internal/infra/files"
	"trivia-quiz-server/internal/infra/postgres"
)

// NewImportCmd copies a question folder into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [folder]",
		Short: "Import a question folder into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			return runImport(cmd.Context(), *configPath, folder)
		},
	}
}

func runImport(ctx context.Context, configPath, folder string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if folder == "" {
		folder = cfg.Quiz.Folder
	}

	topics, err := app.LoadBank(ctx, files.NewTopicLoader(folder), cfg.Quiz.QuestionsPerTopic)
	if err != nil {
		return err
	}

	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()

	if _, err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	count, err := postgres.NewImporter(db).Import(ctx, topics)
	if err != nil {
		return err
	}
	newLogger(cfg.Log.Level).Info("questions imported", "folder", folder, "topics", len(topics), "questions", count)
	return nil
}
