package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/macroplace/internal/api"
	"github.com/matzehuels/macroplace/pkg/pipeline"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		pf      placementFlags
		cf      cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve placement over HTTP",
		Long: `Serve starts the HTTP API. Placement flags and --config set the defaults
that request options are merged over.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			popts, warnings, err := pf.options(cmd)
			if err != nil {
				return err
			}
			console{w: cmd.ErrOrStderr()}.warnings(warnings)

			runner, err := c.newRunner(ctx, cf)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := api.New(api.Config{
				Addr:     addr,
				Runner:   runner,
				Defaults: pipeline.Options{Placement: popts},
				Timeout:  timeout,
				Logger:   c.Logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", api.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", api.DefaultTimeout, "per-request timeout")
	pf.register(cmd)
	cf.register(cmd)

	return cmd
}
