package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausmates/hcal/internal/backend"
	"github.com/hausmates/hcal/internal/cache"
	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/logging"
	"github.com/hausmates/hcal/internal/output"
	"github.com/hausmates/hcal/internal/store"
)

// backendFactory is swapped out in tests to run commands against a fake
// backend instead of a live service.
var backendFactory = newRESTBackend

type globalOptions struct {
	JSON          bool
	JSONL         bool
	Plain         bool
	Fields        string
	Quiet         bool
	Verbose       bool
	Profile       string
	Config        string
	BaseURL       string
	Token         string
	TZ            string
	ActorID       int64
	GroupID       int64
	Timeout       time.Duration
	NoCache       bool
	CachePath     string
	LogLevel      string
	SchemaVersion string
}

func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		renderTopLevelError(cmd, err)
	}
	return ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{
		Profile:       "default",
		Timeout:       15 * time.Second,
		SchemaVersion: contract.SchemaVersion,
	}

	root := &cobra.Command{
		Use:           "hcal",
		Short:         "Household calendar from terminal workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       BuildVersionString(),
	}
	root.SetVersionTemplate("hcal {{.Version}}\n")

	root.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Output structured JSON")
	root.PersistentFlags().BoolVar(&opts.JSONL, "jsonl", false, "Output newline-delimited JSON")
	root.PersistentFlags().BoolVar(&opts.Plain, "plain", false, "Output stable plain text")
	root.PersistentFlags().StringVar(&opts.Fields, "fields", "", "Projected fields, comma-separated")
	root.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Reduce success output")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose diagnostics")
	root.PersistentFlags().StringVar(&opts.Profile, "profile", "default", "Config profile")
	root.PersistentFlags().StringVar(&opts.Config, "config", "", "Config file path")
	root.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "Backend base URL")
	root.PersistentFlags().StringVar(&opts.Token, "token", "", "Backend bearer token")
	root.PersistentFlags().StringVar(&opts.TZ, "tz", "", "IANA timezone for naive timestamps")
	root.PersistentFlags().Int64Var(&opts.ActorID, "actor", 0, "Acting member id for ownership filtering")
	root.PersistentFlags().Int64Var(&opts.GroupID, "group", 0, "Household group id")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 15*time.Second, "Backend call timeout (0 to disable)")
	root.PersistentFlags().BoolVar(&opts.NoCache, "no-cache", false, "Disable the offline snapshot cache")
	root.PersistentFlags().StringVar(&opts.SchemaVersion, "schema-version", contract.SchemaVersion, "Output schema version")

	root.AddCommand(newViewCmd(opts))
	root.AddCommand(newEventsCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintf(c.OutOrStdout(), "hcal %s\n", BuildVersionString())
		},
	}
}

type commandContext struct {
	printer output.Printer
	store   *store.Store
	backend backend.Backend
	opts    *globalOptions
	snaps   *cache.Cache
}

func buildContext(cmd *cobra.Command, opts *globalOptions, command string) (*commandContext, error) {
	resolved, err := resolveGlobalOptions(cmd, opts)
	if err != nil {
		return nil, Wrap(2, err)
	}
	if conflictCount(resolved.JSON, resolved.JSONL, resolved.Plain) > 1 {
		return nil, Wrap(2, errors.New("--json, --jsonl, and --plain are mutually exclusive"))
	}
	mode := output.ModeAuto
	if resolved.JSON {
		mode = output.ModeJSON
	} else if resolved.JSONL {
		mode = output.ModeJSONL
	} else if resolved.Plain {
		mode = output.ModePlain
	}

	printer := output.Printer{
		Mode:          mode,
		Command:       command,
		Fields:        splitCSV(resolved.Fields),
		Quiet:         resolved.Quiet,
		SchemaVersion: resolved.SchemaVersion,
		Out:           cmd.OutOrStdout(),
		Err:           cmd.ErrOrStderr(),
	}

	level := resolved.LogLevel
	if resolved.Verbose {
		level = "debug"
	}
	logger := logging.Setup(cmd.ErrOrStderr(), level)

	be, err := backendFactory(resolved)
	if err != nil {
		_ = printer.Error(contract.ErrUsage, err.Error(), "Set base_url in the config file or pass --base-url")
		return nil, WrapPrinted(2, err)
	}

	var snaps *cache.Cache
	if !resolved.NoCache && resolved.CachePath != "" {
		if err := os.MkdirAll(dirOf(resolved.CachePath), 0o755); err == nil {
			if c, cerr := cache.Open(resolved.CachePath); cerr == nil {
				snaps = c
			} else {
				logger.Warn("snapshot cache unavailable", "path", resolved.CachePath, "err", cerr)
			}
		}
	}

	if resolved.Verbose {
		logger.Debug("command context",
			"command", command, "profile", resolved.Profile,
			"tz", resolved.TZ, "timeout", resolved.Timeout)
	}

	return &commandContext{
		printer: printer,
		store:   store.New(be, snaps, resolved.ActorID),
		backend: be,
		opts:    resolved,
		snaps:   snaps,
	}, nil
}

func (cc *commandContext) close() {
	if cc != nil && cc.snaps != nil {
		_ = cc.snaps.Close()
	}
}

func (cc *commandContext) context() (context.Context, context.CancelFunc) {
	if cc.opts.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), cc.opts.Timeout)
}

func newRESTBackend(ro *globalOptions) (backend.Backend, error) {
	if strings.TrimSpace(ro.BaseURL) == "" {
		return nil, errors.New("backend base URL is not configured")
	}
	client := &http.Client{}
	be := backend.NewREST(ro.BaseURL, ro.Token, client, nil)
	be.SetLocation(resolveLocation(ro.TZ))
	return be, nil
}

// fail prints err through the envelope printer with a taxonomy-mapped
// code and returns the matching exit-code wrapper.
func (cc *commandContext) fail(err error, hint string) error {
	code, exit := classifyError(err)
	_ = cc.printer.Error(code, err.Error(), hint)
	return WrapPrinted(exit, err)
}

func classifyError(err error) (contract.ErrorCode, int) {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return contract.ErrValidation, 3
	}
	var re *backend.RemoteError
	if errors.As(err, &re) {
		if re.Status == http.StatusNotFound {
			return contract.ErrNotFound, 4
		}
		return contract.ErrRemote, 5
	}
	var te *backend.TransportError
	if errors.As(err, &te) {
		return contract.ErrTransport, 6
	}
	return contract.ErrGeneric, 1
}

func renderTopLevelError(cmd *cobra.Command, err error) {
	var appErr AppError
	if errors.As(err, &appErr) && appErr.Printed {
		return
	}
	if wantsStructuredErrorOutput(os.Args[1:]) {
		printer := output.Printer{
			Mode:          output.ModeJSON,
			SchemaVersion: contract.SchemaVersion,
			Err:           cmd.ErrOrStderr(),
		}
		_ = printer.Error(errorCodeForExit(ExitCode(err)), err.Error(), "")
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err.Error())
}

func wantsStructuredErrorOutput(args []string) bool {
	for _, arg := range args {
		switch {
		case arg == "--":
			return false
		case arg == "--json", arg == "--jsonl":
			return true
		case strings.HasPrefix(arg, "--json="), strings.HasPrefix(arg, "--jsonl="):
			return true
		}
	}
	return false
}

func resolveLocation(tz string) *time.Location {
	if strings.TrimSpace(tz) != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}

func conflictCount(vals ...bool) int {
	total := 0
	for _, v := range vals {
		if v {
			total++
		}
	}
	return total
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dirOf(path string) string {
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return "."
}
