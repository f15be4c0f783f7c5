// Package cmd holds the courseatlas subcommands.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yigit/courseatlas/internal/bootstrap"
	"github.com/yigit/courseatlas/internal/config"
	"github.com/yigit/courseatlas/internal/pkg/logger"
)

// App carries the state shared by every subcommand
type App struct {
	configPath string
	logLevel   string
	output     string

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand creates the root command with all subcommands
func NewRootCommand() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "courseatlas",
		Short: "Course catalog ingestion, rating crawl and catalog API",
		Long: `courseatlas keeps a normalized catalog of course offerings built from
enrollment extracts of any era, and enriches instructors with rating data
crawled from the public professor directory.`,
		PersistentPreRunE: app.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", filepath.Join("configs", "config.yaml"), "config file")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&app.output, "output", "o", "table", "report format: table or json")

	rootCmd.AddCommand(
		newMigrateCommand(app),
		newIngestCommand(app),
		newCrawlCommand(app),
		newServeCommand(app),
	)

	return rootCmd
}

// setup loads configuration and configures logging before any subcommand runs
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.output != "table" && a.output != "json" {
		return fmt.Errorf("invalid --output %q: must be table or json", a.output)
	}

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		logger.Configure(logger.Config{
			Level:  logger.ParseLevel(a.logLevel),
			Pretty: cfg.PrettyLogs(),
		})
		lgr = logger.Logger()
	}

	a.cfg = cfg
	a.log = lgr
	return nil
}
