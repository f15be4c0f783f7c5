package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yigit/courseatlas/internal/server"
)

func newServeCommand(app *App) *cobra.Command {
	var (
		port    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only catalog API",
		Example: `  # Serve on the configured port
  courseatlas serve

  # Serve on port 9000, applying migrations first
  courseatlas serve --port 9000 --migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				app.cfg.Server.Port = port
			}

			srv, err := server.NewServer(cmd.Context(), app.cfg, app.log, migrate)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (default from config)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}
