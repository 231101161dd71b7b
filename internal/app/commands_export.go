package app

import (
	"fmt"
	"os"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/spf13/cobra"
	"github.com/teambition/rrule-go"

	"github.com/hausmates/hcal/internal/backend"
	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
	"github.com/hausmates/hcal/internal/view"
)

func newEventsExportCmd(opts *globalOptions) *cobra.Command {
	var (
		gran   string
		anchor string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a window as an iCalendar file",
		Long: `Fetch a calendar window and write it as iCalendar. Recurrences are
exported as standard RRULEs; a monthly rule anchored past the 28th will
skip short months in consumers that follow RFC 5545 strictly.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cc, err := buildContext(c, opts, "events export")
			if err != nil {
				return err
			}
			defer cc.close()

			g, err := view.ParseGranularity(gran)
			if err != nil {
				return Wrap(2, err)
			}
			at := time.Now()
			if anchor != "" {
				at, err = naivetime.Parse(anchor, resolveLocation(cc.opts.TZ))
				if err != nil {
					return Wrap(2, fmt.Errorf("invalid --anchor: %w", err))
				}
			}

			w := view.New(at, g)
			q := w.Query()
			ctx, cancel := cc.context()
			defer cancel()
			if err := cc.store.LoadQuery(ctx, backend.EventQuery{ViewType: q.ViewType, DateTime: q.DateTime}); err != nil && !cc.store.Stale() {
				return cc.fail(err, "Check connectivity to the backend, or retry with --verbose")
			}

			events := cc.store.Events()
			payload, err := buildICS(events, resolveLocation(cc.opts.TZ))
			if err != nil {
				return cc.fail(err, "")
			}

			if out == "" || out == "-" {
				_, _ = fmt.Fprint(cc.printer.Out, payload)
			} else {
				if err := os.WriteFile(out, []byte(payload), 0o644); err != nil {
					return cc.fail(err, "")
				}
				if !cc.printer.Quiet {
					_, _ = fmt.Fprintf(cc.printer.Err, "wrote %d events to %s\n", len(events), out)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gran, "granularity", "month", "Window granularity to export")
	cmd.Flags().StringVar(&anchor, "anchor", "", "Anchor date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output file, or - for stdout")
	return cmd
}

func buildICS(events []contract.Event, loc *time.Location) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//hausmates//hcal//EN")

	for _, e := range events {
		ve := cal.AddEvent(fmt.Sprintf("hcal-%d@hausmates", e.ID))
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		ve.SetDtStampTime(time.Now())

		day := naivetime.DayOf(e.Date.In(loc))
		if e.AllDay || e.StartTime == "" {
			ve.SetAllDayStartAt(day)
			end := day.AddDate(0, 0, 1)
			if e.EndDate != nil {
				end = naivetime.DayOf(e.EndDate.In(loc)).AddDate(0, 0, 1)
			}
			ve.SetAllDayEndAt(end)
		} else {
			start := naivetime.WithClock(day, e.StartTime)
			ve.SetStartAt(start)
			if e.EndTime != "" {
				ve.SetEndAt(naivetime.WithClock(day, e.EndTime))
			}
		}

		if rule, ok := exportRule(e, loc); ok {
			ve.AddRrule(rule)
		}
	}
	return cal.Serialize(), nil
}

// exportRule renders the recurrence as an RFC 5545 RRULE string.
func exportRule(e contract.Event, loc *time.Location) (string, bool) {
	if !e.Recurring() {
		return "", false
	}
	var freq rrule.Frequency
	switch e.Repeat {
	case contract.RepeatDaily:
		freq = rrule.DAILY
	case contract.RepeatWeekly:
		freq = rrule.WEEKLY
	case contract.RepeatMonthly:
		freq = rrule.MONTHLY
	case contract.RepeatYearly:
		freq = rrule.YEARLY
	default:
		return "", false
	}
	opt := rrule.ROption{Freq: freq, Dtstart: naivetime.DayOf(e.Date.In(loc))}
	if e.RepeatUntil != nil {
		opt.Until = naivetime.DayOf(e.RepeatUntil.In(loc)).AddDate(0, 0, 1).Add(-time.Second)
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", false
	}
	return r.String(), true
}
