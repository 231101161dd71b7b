package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hausmates/hcal/internal/output"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent mutations recorded by this client",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cc, err := buildContext(c, opts, "history")
			if err != nil {
				return err
			}
			defer cc.close()

			entries, err := readHistory(limit)
			if err != nil {
				return cc.fail(err, "The history file may be corrupt; remove it to reset")
			}
			if cc.printer.Mode == output.ModeJSON || cc.printer.Mode == output.ModeJSONL {
				if err := cc.printer.Success(entries, map[string]any{"count": len(entries)}, nil); err != nil {
					return Wrap(1, err)
				}
				return nil
			}
			if len(entries) == 0 {
				if !cc.printer.Quiet {
					_, _ = fmt.Fprintln(cc.printer.Out, "no history")
				}
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{humanize.Time(e.At), e.Action, e.Profile})
			}
			if err := cc.printer.Table([]string{"WHEN", "ACTION", "PROFILE"}, rows); err != nil {
				return Wrap(1, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}
