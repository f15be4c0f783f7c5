package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/courseatlas/internal/app/repositories"
	"github.com/yigit/courseatlas/internal/bootstrap"
	"github.com/yigit/courseatlas/internal/ingest"
)

func newIngestCommand(app *App) *cobra.Command {
	var (
		pattern string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [file or directory...]",
		Short: "Load enrollment extracts into the catalog",
		Long: `Ingest reads delimited enrollment extracts, reconciles their headers and
upserts terms, subjects, courses, sections, meetings and instructors.

Each file is written in its own transaction. Rows failing validation are
skipped and counted; a store error rolls back that file only and the batch
continues. Without arguments the configured data directory is used.`,
		Example: `  # Ingest every *_cleaned.csv in the configured data directory
  courseatlas ingest

  # Ingest specific files
  courseatlas ingest data/processed/fall_2024_cleaned.csv

  # Ingest a directory with a custom pattern, migrating first
  courseatlas ingest --migrate --pattern '*.csv' data/archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			inputs := args
			if len(inputs) == 0 {
				inputs = []string{app.cfg.Ingest.DataDir}
			}
			if pattern == "" {
				pattern = app.cfg.Ingest.Pattern
			}

			files, err := ingest.Discover(inputs, pattern)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no input files matched %q in %s", pattern, strings.Join(inputs, ", "))
			}

			database, err := bootstrap.SetupDatabase(ctx, app.cfg, app.log, migrate)
			if err != nil {
				return err
			}
			defer database.Close()

			engine := ingest.NewEngine(repositories.NewCatalogTransactor(database), app.log)
			report, runErr := engine.Run(ctx, files)

			if err := renderIngestReport(cmd.OutOrStdout(), app.output, report); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", report.Failed, len(report.Files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "glob applied inside directories (default from config)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before ingesting")

	return cmd
}
