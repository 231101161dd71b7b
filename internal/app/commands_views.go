package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausmates/hcal/internal/backend"
	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
	"github.com/hausmates/hcal/internal/output"
	"github.com/hausmates/hcal/internal/view"
)

type viewOptions struct {
	Anchor   string
	Next     int
	Prev     int
	Mode     string
	Category string
}

// dayEvents is one rendered day of a view window.
type dayEvents struct {
	Date   string           `json:"date"`
	Events []contract.Event `json:"events"`
}

func newViewCmd(opts *globalOptions) *cobra.Command {
	vopts := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render a calendar window",
		Long: `Render the events visible in a calendar window.

The window is an anchor day plus a granularity. Stepping a monthly
window clamps the day-of-month, so one month on from Jan 31 lands on
the last day of February.`,
	}

	cmd.PersistentFlags().StringVar(&vopts.Anchor, "anchor", "", "Anchor date (YYYY-MM-DD, default today)")
	cmd.PersistentFlags().IntVar(&vopts.Next, "next", 0, "Step the window forward N units before rendering")
	cmd.PersistentFlags().IntVar(&vopts.Prev, "prev", 0, "Step the window back N units before rendering")
	cmd.PersistentFlags().StringVar(&vopts.Mode, "mode", "personal", "Ownership filter: personal or group")
	cmd.PersistentFlags().StringVar(&vopts.Category, "category", "", "Only fetch events of one category")

	for _, g := range []view.Granularity{view.Day, view.Week, view.Month, view.Year} {
		g := g
		use := string(g)
		short := fmt.Sprintf("Show one %s of events", g)
		if g == view.Day {
			use = "today"
			short = "Show today's events"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return runView(c, opts, vopts, g)
			},
		})
	}
	return cmd
}

func runView(cmd *cobra.Command, opts *globalOptions, vopts *viewOptions, g view.Granularity) error {
	cc, err := buildContext(cmd, opts, "view "+string(g))
	if err != nil {
		return err
	}
	defer cc.close()

	mode, err := parseViewMode(vopts.Mode)
	if err != nil {
		return Wrap(2, err)
	}
	groupID := cc.opts.GroupID
	if mode == contract.ModeGroup && groupID == 0 {
		return Wrap(2, fmt.Errorf("group mode needs --group or a configured group_id"))
	}

	anchor := time.Now()
	if vopts.Anchor != "" {
		anchor, err = naivetime.Parse(vopts.Anchor, resolveLocation(cc.opts.TZ))
		if err != nil {
			return Wrap(2, fmt.Errorf("invalid --anchor: %w", err))
		}
	}

	w := view.New(anchor, g)
	for i := 0; i < vopts.Next; i++ {
		w.Next()
	}
	for i := 0; i < vopts.Prev; i++ {
		w.Prev()
	}

	q := w.Query()
	eq := backend.EventQuery{
		ViewType: q.ViewType,
		DateTime: q.DateTime,
		Category: contract.Category(strings.ToLower(vopts.Category)),
	}
	if mode == contract.ModeGroup {
		eq.GroupID = groupID
	}

	ctx, cancel := cc.context()
	defer cancel()
	loadErr := cc.store.LoadQuery(ctx, eq)
	if loadErr != nil && !cc.store.Stale() {
		return cc.fail(loadErr, "Check connectivity to the backend, or retry with --verbose")
	}

	var warnings []string
	if cc.store.Stale() {
		warnings = append(warnings, "backend unreachable; showing the last cached snapshot")
	}

	days := renderWindow(cc, w, mode, groupID)
	meta := map[string]any{
		"granularity": string(g),
		"anchor":      naivetime.EncodeDate(w.Anchor()),
		"mode":        string(mode),
		"stale":       cc.store.Stale(),
	}
	if err := printDays(cc, days, meta, warnings); err != nil {
		return Wrap(1, err)
	}
	return nil
}

func renderWindow(cc *commandContext, w *view.Window, mode contract.ViewMode, groupID int64) []dayEvents {
	start, end := w.Bounds()
	var days []dayEvents
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		events := cc.store.EventsOn(d, mode, groupID)
		if len(events) == 0 && w.Granularity() != view.Day && w.Granularity() != view.Week {
			// Month and year windows list only days that have events;
			// day and week windows always show every day.
			continue
		}
		days = append(days, dayEvents{Date: naivetime.EncodeDate(d), Events: events})
	}
	return days
}

func printDays(cc *commandContext, days []dayEvents, meta map[string]any, warnings []string) error {
	if cc.printer.Mode == output.ModePlain || cc.printer.Mode == output.ModeAuto {
		return printDaysTable(cc, days, warnings)
	}
	return cc.printer.Success(days, meta, warnings)
}

func printDaysTable(cc *commandContext, days []dayEvents, warnings []string) error {
	header := []string{"DATE", "TIME", "TITLE", "CATEGORY", "SCOPE", "REPEAT"}
	var rows [][]string
	for _, day := range days {
		for _, e := range day.Events {
			rows = append(rows, []string{
				day.Date, eventTimeRange(e), e.Title,
				string(e.Category), string(e.Scope), repeatLabel(e),
			})
		}
		if len(day.Events) == 0 {
			rows = append(rows, []string{day.Date, "", "(no events)", "", "", ""})
		}
	}
	if len(rows) == 0 {
		if !cc.printer.Quiet {
			_, _ = fmt.Fprintln(cc.printer.Out, "no events")
		}
	} else if err := cc.printer.Table(header, rows); err != nil {
		return err
	}
	for _, warn := range warnings {
		_, _ = fmt.Fprintf(cc.printer.Err, "warning: %s\n", warn)
	}
	return nil
}

func eventTimeRange(e contract.Event) string {
	if e.AllDay {
		return "all-day"
	}
	if e.StartTime == "" {
		return ""
	}
	if e.EndTime == "" {
		return e.StartTime
	}
	return e.StartTime + "-" + e.EndTime
}

func repeatLabel(e contract.Event) string {
	if !e.Recurring() {
		return ""
	}
	return string(e.Repeat)
}

func parseViewMode(v string) (contract.ViewMode, error) {
	switch v {
	case "", "personal":
		return contract.ModePersonal, nil
	case "group":
		return contract.ModeGroup, nil
	default:
		return contract.ModePersonal, fmt.Errorf("invalid --mode: %s (want personal or group)", v)
	}
}
