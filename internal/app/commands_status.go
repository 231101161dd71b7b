package app

import (
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connectivity to the backend",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cc, err := buildContext(c, opts, "status")
			if err != nil {
				return err
			}
			defer cc.close()

			ctx, cancel := cc.context()
			defer cancel()
			if err := cc.backend.Ping(ctx); err != nil {
				return cc.fail(err, "Check base_url and network connectivity")
			}
			if err := cc.printer.Success(map[string]any{
				"reachable": true,
				"base_url":  cc.opts.BaseURL,
				"profile":   cc.opts.Profile,
			}, nil, nil); err != nil {
				return Wrap(1, err)
			}
			return nil
		},
	}
}
