package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/courseatlas/internal/bootstrap"
)

func newMigrateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			database, err := bootstrap.SetupDatabase(ctx, app.cfg, app.log, false)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := bootstrap.RunMigrations(ctx, database, app.log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", applied)
			return nil
		},
	}
}
