package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausmates/hcal/internal/backend"
	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
	"github.com/hausmates/hcal/internal/store"
	"github.com/hausmates/hcal/internal/view"
)

func newEventsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and mutate calendar events",
	}
	cmd.AddCommand(newEventsListCmd(opts))
	cmd.AddCommand(newEventsAddCmd(opts))
	cmd.AddCommand(newEventsUpdateCmd(opts))
	cmd.AddCommand(newEventsDeleteCmd(opts))
	cmd.AddCommand(newEventsExportCmd(opts))
	return cmd
}

func newEventsListCmd(opts *globalOptions) *cobra.Command {
	var (
		viewType string
		date     string
		category string
		page     int
		size     int
		sortBy   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events from the backend",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cc, err := buildContext(c, opts, "events list")
			if err != nil {
				return err
			}
			defer cc.close()

			eq := backend.EventQuery{
				Category: contract.Category(strings.ToLower(category)),
				GroupID:  cc.opts.GroupID,
				Page:     page,
				Size:     size,
				Sort:     sortBy,
			}
			if viewType != "" {
				g, err := view.ParseGranularity(viewType)
				if err != nil {
					return Wrap(2, err)
				}
				eq.ViewType = g.ViewType()
			}
			if date != "" {
				anchor, err := naivetime.Parse(date, resolveLocation(cc.opts.TZ))
				if err != nil {
					return Wrap(2, fmt.Errorf("invalid --date: %w", err))
				}
				eq.DateTime = naivetime.Encode(anchor)
			}

			ctx, cancel := cc.context()
			defer cancel()
			if err := cc.store.LoadQuery(ctx, eq); err != nil && !cc.store.Stale() {
				return cc.fail(err, "Check connectivity to the backend, or retry with --verbose")
			}

			events := cc.store.Events()
			var warnings []string
			if cc.store.Stale() {
				warnings = append(warnings, "backend unreachable; showing the last cached snapshot")
			}
			meta := map[string]any{"count": len(events), "stale": cc.store.Stale()}
			if err := cc.printer.Success(events, meta, warnings); err != nil {
				return Wrap(1, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&viewType, "view", "", "Window granularity filter: day, week, or month")
	cmd.Flags().StringVar(&date, "date", "", "Anchor date for the window filter (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "Only list events of one category")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Page size")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Server-side sort key")
	return cmd
}

// eventDraft holds the mutation flag surface shared by add and update.
type eventDraft struct {
	Title       string
	Description string
	Date        string
	EndDate     string
	Start       string
	End         string
	AllDay      bool
	Category    string
	Repeat      string
	Until       string
	Scope       string
}

func (d *eventDraft) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.Title, "title", "", "Event title")
	cmd.Flags().StringVar(&d.Description, "desc", "", "Event description")
	cmd.Flags().StringVar(&d.Date, "date", "", "Anchor day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.EndDate, "end-date", "", "Last day for multi-day events (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.Start, "start", "", "Start time of day (HH:MM)")
	cmd.Flags().StringVar(&d.End, "end", "", "End time of day (HH:MM)")
	cmd.Flags().BoolVar(&d.AllDay, "all-day", false, "All-day event, no clock times")
	cmd.Flags().StringVar(&d.Category, "category", "general", "Category token")
	cmd.Flags().StringVar(&d.Repeat, "repeat", "none", "Recurrence: none, daily, weekly, monthly, yearly")
	cmd.Flags().StringVar(&d.Until, "until", "", "Last day the recurrence is active (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.Scope, "scope", "personal", "Ownership scope: personal or group")
}

func (d *eventDraft) build(cc *commandContext) (contract.Event, error) {
	loc := resolveLocation(cc.opts.TZ)
	e := contract.Event{
		Title:       d.Title,
		Description: d.Description,
		AllDay:      d.AllDay,
		StartTime:   d.Start,
		EndTime:     d.End,
		Category:    contract.Category(strings.ToLower(d.Category)),
		Repeat:      contract.Repeat(strings.ToLower(d.Repeat)),
		Scope:       contract.Scope(strings.ToLower(d.Scope)),
		OwnerID:     cc.opts.ActorID,
	}
	if e.Scope == contract.ScopeGroup {
		e.GroupID = cc.opts.GroupID
	}
	if d.Date != "" {
		day, err := naivetime.Parse(d.Date, loc)
		if err != nil {
			return e, fmt.Errorf("invalid --date: %w", err)
		}
		e.Date = naivetime.DayOf(day)
	}
	if d.EndDate != "" {
		day, err := naivetime.Parse(d.EndDate, loc)
		if err != nil {
			return e, fmt.Errorf("invalid --end-date: %w", err)
		}
		end := naivetime.DayOf(day)
		e.EndDate = &end
	}
	if d.Until != "" {
		day, err := naivetime.Parse(d.Until, loc)
		if err != nil {
			return e, fmt.Errorf("invalid --until: %w", err)
		}
		until := naivetime.DayOf(day)
		e.RepeatUntil = &until
	}
	return e, nil
}

func newEventsAddCmd(opts *globalOptions) *cobra.Command {
	draft := &eventDraft{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cc, err := buildContext(c, opts, "events add")
			if err != nil {
				return err
			}
			defer cc.close()

			e, err := draft.build(cc)
			if err != nil {
				return Wrap(2, err)
			}
			ctx, cancel := cc.context()
			defer cancel()
			created, err := cc.store.Create(ctx, e)
			if err != nil {
				return cc.fail(err, mutationHint(err))
			}
			if err := cc.printer.Success(created, map[string]any{"action": "created"}, nil); err != nil {
				return Wrap(1, err)
			}
			cc.recordHistory("add", created)
			return nil
		},
	}
	draft.register(cmd)
	return cmd
}

func newEventsUpdateCmd(opts *globalOptions) *cobra.Command {
	draft := &eventDraft{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace every field of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cc, err := buildContext(c, opts, "events update")
			if err != nil {
				return err
			}
			defer cc.close()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return Wrap(2, fmt.Errorf("invalid event id: %s", args[0]))
			}
			e, err := draft.build(cc)
			if err != nil {
				return Wrap(2, err)
			}
			e.ID = id
			ctx, cancel := cc.context()
			defer cancel()
			updated, err := cc.store.Update(ctx, id, e)
			if err != nil {
				return cc.fail(err, mutationHint(err))
			}
			if err := cc.printer.Success(updated, map[string]any{"action": "updated"}, nil); err != nil {
				return Wrap(1, err)
			}
			cc.recordHistory("update", updated)
			return nil
		},
	}
	draft.register(cmd)
	return cmd
}

func newEventsDeleteCmd(opts *globalOptions) *cobra.Command {
	var (
		deleteType string
		instance   string
	)
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cc, err := buildContext(c, opts, "events delete")
			if err != nil {
				return err
			}
			defer cc.close()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return Wrap(2, fmt.Errorf("invalid event id: %s", args[0]))
			}
			dt, err := parseDeleteType(deleteType)
			if err != nil {
				return Wrap(2, err)
			}
			var at time.Time
			if instance != "" {
				at, err = naivetime.Parse(instance, resolveLocation(cc.opts.TZ))
				if err != nil {
					return Wrap(2, fmt.Errorf("invalid --instance: %w", err))
				}
			}
			if dt != contract.DeleteAll && at.IsZero() {
				return Wrap(2, fmt.Errorf("--delete-type %s needs --instance", dt))
			}

			ctx, cancel := cc.context()
			defer cancel()
			if err := cc.store.Delete(ctx, id, dt, at); err != nil {
				return cc.fail(err, mutationHint(err))
			}
			if err := cc.printer.Success(map[string]any{"id": id, "deleted": true},
				map[string]any{"action": "deleted", "delete_type": string(dt)}, nil); err != nil {
				return Wrap(1, err)
			}
			cc.recordHistory("delete", map[string]any{"id": id, "delete_type": string(dt)})
			return nil
		},
	}
	cmd.Flags().StringVar(&deleteType, "delete-type", "all", "Delete scope: single, future, or all")
	cmd.Flags().StringVar(&instance, "instance", "", "Occurrence day for single/future deletes (YYYY-MM-DD)")
	return cmd
}

func parseDeleteType(v string) (contract.DeleteType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all":
		return contract.DeleteAll, nil
	case "single":
		return contract.DeleteSingle, nil
	case "future":
		return contract.DeleteFuture, nil
	default:
		return contract.DeleteAll, fmt.Errorf("invalid --delete-type: %s (want single, future, or all)", v)
	}
}

func mutationHint(err error) string {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Violations))
		for _, v := range ve.Violations {
			parts = append(parts, v.Message)
		}
		return strings.Join(parts, "; ")
	}
	return "Retry with --verbose for request details"
}
