package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/view"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		schedule string
		gran     string
		mode     string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a window refreshed on a schedule",
		Long: `Refresh a calendar window on a cron schedule and print today's
events after every fetch. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cc, err := buildContext(c, opts, "watch")
			if err != nil {
				return err
			}
			defer cc.close()

			g, err := view.ParseGranularity(gran)
			if err != nil {
				return Wrap(2, err)
			}
			vm, err := parseViewMode(mode)
			if err != nil {
				return Wrap(2, err)
			}
			if vm == contract.ModeGroup && cc.opts.GroupID == 0 {
				return Wrap(2, fmt.Errorf("group mode needs --group or a configured group_id"))
			}

			w := view.New(time.Now(), g)
			refresh := func() {
				ctx, cancel := cc.context()
				defer cancel()
				q := w.Today()
				if err := cc.store.Load(ctx, q); err != nil {
					_, _ = fmt.Fprintf(cc.printer.Err, "refresh failed: %v\n", err)
					return
				}
				today := cc.store.EventsOn(time.Now(), vm, cc.opts.GroupID)
				_, _ = fmt.Fprintf(cc.printer.Out, "refreshed %s, %d events today\n",
					humanize.Time(time.Now()), len(today))
				for _, e := range today {
					_, _ = fmt.Fprintf(cc.printer.Out, "  %s  %s\n", eventTimeRange(e), e.Title)
				}
			}

			refresh()

			runner := cron.New()
			if _, err := runner.AddFunc(schedule, refresh); err != nil {
				return Wrap(2, fmt.Errorf("invalid --schedule: %w", err))
			}
			runner.Start()
			defer runner.Stop()

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			<-done
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "*/5 * * * *", "Cron schedule for refreshes")
	cmd.Flags().StringVar(&gran, "granularity", "week", "Window granularity to keep loaded")
	cmd.Flags().StringVar(&mode, "mode", "personal", "Ownership filter: personal or group")
	return cmd
}
