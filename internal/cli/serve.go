package cli

import (
	"github.com/spf13/cobra"

	"github.com/fretline/fretline/internal/api"
)

// serveCommand creates the serve command, which runs the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the fretline HTTP API server. Jobs are uploaded, transcribed, and
rendered asynchronously; see the config file for cache, job store, and
transcription service settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := api.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srv, err := api.New(ctx, cfg, c.Logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			c.Logger.Info("starting server", "addr", cfg.Server.Addr)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
