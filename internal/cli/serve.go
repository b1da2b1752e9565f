package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hypercut/pkg/api"
	"github.com/matzehuels/hypercut/pkg/observability"
	"github.com/matzehuels/hypercut/pkg/pipeline"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		events bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the partitioning HTTP API",
		Long: `Serve the partitioning HTTP API using the cache and run store from the
configuration file. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			if events {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Register()
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&events, "log-events", false, "log run, cache and request events (implies --verbose)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ch := c.newCache(ctx, false)
	defer ch.Close()

	c.Logger.Info("starting server",
		"cache", c.cfg.Cache.Backend,
		"store", c.cfg.Store.Backend)

	srv := api.New(pipeline.NewRunner(ch, nil, c.Logger), st, c.Logger, api.Config{
		Defaults: c.cfg.PipelineOptions(),
		Timeout:  c.cfg.Server.Timeout,
		MaxPins:  c.cfg.Server.MaxPins,
	})
	return srv.ListenAndServe(ctx, addr)
}
