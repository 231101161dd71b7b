package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hausmates/hcal/internal/backend"
	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/output"
)

// captureBackend records the last call of each kind and answers from
// canned data.
type captureBackend struct {
	listQuery      backend.EventQuery
	listCalls      int
	events         []contract.Event
	listErr        error
	created        *contract.Event
	updatedID      int64
	updated        *contract.Event
	deleteID       int64
	deleteType     contract.DeleteType
	deleteInstance time.Time
	pingErr        error
}

func (b *captureBackend) Ping(context.Context) error { return b.pingErr }

func (b *captureBackend) ListEvents(_ context.Context, q backend.EventQuery) ([]contract.Event, error) {
	b.listCalls++
	b.listQuery = q
	return b.events, b.listErr
}

func (b *captureBackend) CreateEvent(_ context.Context, e contract.Event) (*contract.Event, error) {
	e.ID = 42
	b.created = &e
	return &e, nil
}

func (b *captureBackend) UpdateEvent(_ context.Context, id int64, e contract.Event) (*contract.Event, error) {
	b.updatedID = id
	e.ID = id
	b.updated = &e
	return &e, nil
}

func (b *captureBackend) DeleteEvent(_ context.Context, id int64, dt contract.DeleteType, at time.Time) error {
	b.deleteID = id
	b.deleteType = dt
	b.deleteInstance = at
	return nil
}

func withFakeBackend(t *testing.T, fb backend.Backend) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HCAL_HISTORY_PATH", t.TempDir()+"/history.jsonl")
	orig := backendFactory
	backendFactory = func(*globalOptions) (backend.Backend, error) { return fb, nil }
	t.Cleanup(func() { backendFactory = orig })
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append(args, "--no-cache"))
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func dailyEvent(title string) contract.Event {
	return contract.Event{
		ID:    1,
		Title: title,
		Date:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local),
		// Unbounded on purpose so the event shows up whatever day the
		// test runs on.
		Repeat:  contract.RepeatDaily,
		AllDay:  true,
		Scope:   contract.ScopePersonal,
		OwnerID: 1,
	}
}

func TestViewTodaySendsDailyQuery(t *testing.T) {
	fb := &captureBackend{events: []contract.Event{dailyEvent("meds")}}
	withFakeBackend(t, fb)

	out, _, err := run(t, "view", "today", "--json", "--actor", "1")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fb.listQuery.ViewType != "DAILY" {
		t.Fatalf("viewType = %q, want DAILY", fb.listQuery.ViewType)
	}
	var env contract.SuccessEnvelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("output is not a success envelope: %v\n%s", err, out)
	}
	if env.Command != "view day" {
		t.Fatalf("command = %q", env.Command)
	}
}

func TestViewMonthNavigationClamps(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	if _, _, err := run(t, "view", "month", "--anchor", "2025-01-31", "--next", "1", "--json"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fb.listQuery.ViewType != "MONTHLY" {
		t.Fatalf("viewType = %q, want MONTHLY", fb.listQuery.ViewType)
	}
	if fb.listQuery.DateTime != "2025-02-28T00:00:00" {
		t.Fatalf("dateTime = %q, want the clamped end of February", fb.listQuery.DateTime)
	}
}

func TestViewYearQueriesUntagged(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	if _, _, err := run(t, "view", "year", "--anchor", "2025-06-15", "--json"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fb.listQuery.ViewType != "NONE" {
		t.Fatalf("viewType = %q, want NONE for year windows", fb.listQuery.ViewType)
	}
}

func TestViewGroupModeNeedsGroupID(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, _, err := run(t, "view", "week", "--mode", "group", "--json")
	if ExitCode(err) != 2 {
		t.Fatalf("exit code = %d, want 2", ExitCode(err))
	}
	if fb.listCalls != 0 {
		t.Fatal("no fetch should happen without a group id")
	}
}

func TestEventsAddSendsDraft(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, _, err := run(t,
		"events", "add",
		"--title", "rent",
		"--date", "2025-01-31",
		"--all-day",
		"--category", "bill",
		"--repeat", "monthly",
		"--until", "2025-12-31",
		"--scope", "group",
		"--group", "4",
		"--actor", "1",
		"--json",
	)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fb.created == nil {
		t.Fatal("backend never saw the draft")
	}
	if fb.created.Category != contract.CategoryBill || fb.created.Repeat != contract.RepeatMonthly {
		t.Fatalf("draft = %+v", fb.created)
	}
	if fb.created.Scope != contract.ScopeGroup || fb.created.GroupID != 4 {
		t.Fatalf("scope = %s group = %d", fb.created.Scope, fb.created.GroupID)
	}
	if fb.created.RepeatUntil == nil {
		t.Fatal("repeat bound was dropped")
	}
}

func TestEventsAddValidationFailsBeforeSending(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, errOut, err := run(t, "events", "add", "--title", "", "--date", "2025-06-10", "--all-day", "--json")
	if ExitCode(err) != 3 {
		t.Fatalf("exit code = %d, want 3", ExitCode(err))
	}
	if fb.created != nil {
		t.Fatal("invalid draft must never reach the backend")
	}
	var env contract.ErrorEnvelope
	if jerr := json.Unmarshal([]byte(errOut), &env); jerr != nil {
		t.Fatalf("stderr is not an error envelope: %v\n%s", jerr, errOut)
	}
	if env.Error.Code != contract.ErrValidation {
		t.Fatalf("error code = %s, want %s", env.Error.Code, contract.ErrValidation)
	}
}

func TestEventsUpdateTargetsID(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, _, err := run(t,
		"events", "update", "42",
		"--title", "rent (new amount)",
		"--date", "2025-01-31",
		"--all-day",
		"--category", "bill",
		"--repeat", "monthly",
		"--until", "2025-12-31",
		"--json",
	)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fb.updatedID != 42 {
		t.Fatalf("updated id = %d, want 42", fb.updatedID)
	}
}

func TestEventsDeleteForwardsScope(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, _, err := run(t, "events", "delete", "42", "--delete-type", "single", "--instance", "2025-06-17", "--json")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fb.deleteID != 42 || fb.deleteType != contract.DeleteSingle {
		t.Fatalf("delete = id %d type %s", fb.deleteID, fb.deleteType)
	}
	if fb.deleteInstance.Format("2006-01-02") != "2025-06-17" {
		t.Fatalf("instance = %v", fb.deleteInstance)
	}
}

func TestEventsDeleteSingleNeedsInstance(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, _, err := run(t, "events", "delete", "42", "--delete-type", "single", "--json")
	if ExitCode(err) != 2 {
		t.Fatalf("exit code = %d, want 2", ExitCode(err))
	}
}

func TestRemoteRejectionMapsToExitCode(t *testing.T) {
	fb := &captureBackend{listErr: &backend.RemoteError{Status: 404}}
	withFakeBackend(t, fb)

	_, errOut, err := run(t, "events", "list", "--json")
	if ExitCode(err) != 4 {
		t.Fatalf("exit code = %d, want 4", ExitCode(err))
	}
	var env contract.ErrorEnvelope
	if jerr := json.Unmarshal([]byte(errOut), &env); jerr != nil {
		t.Fatalf("stderr is not an error envelope: %v\n%s", jerr, errOut)
	}
	if env.Error.Code != contract.ErrNotFound {
		t.Fatalf("error code = %s, want %s", env.Error.Code, contract.ErrNotFound)
	}
}

func TestTransportFailureMapsToExitCode(t *testing.T) {
	fb := &captureBackend{listErr: &backend.TransportError{Op: "GET /api/calendar/events", Err: io.ErrUnexpectedEOF}}
	withFakeBackend(t, fb)

	_, _, err := run(t, "events", "list", "--json")
	if ExitCode(err) != 6 {
		t.Fatalf("exit code = %d, want 6", ExitCode(err))
	}
}

func TestStatusReportsReachable(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	out, _, err := run(t, "status", "--json")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	var env contract.SuccessEnvelope
	if jerr := json.Unmarshal([]byte(out), &env); jerr != nil {
		t.Fatalf("output is not a success envelope: %v\n%s", jerr, out)
	}
}

func TestPlainViewPrintsWarningsWhenWindowEmpty(t *testing.T) {
	var out, errBuf bytes.Buffer
	cc := &commandContext{printer: output.Printer{
		Mode: output.ModePlain,
		Out:  &out,
		Err:  &errBuf,
	}}
	warnings := []string{"backend unreachable; showing the last cached snapshot"}
	if err := printDaysTable(cc, nil, warnings); err != nil {
		t.Fatalf("printDaysTable: %v", err)
	}
	if !strings.Contains(out.String(), "no events") {
		t.Fatalf("stdout = %q", out.String())
	}
	if !strings.Contains(errBuf.String(), "warning: backend unreachable") {
		t.Fatalf("stale warning lost on an empty window: %q", errBuf.String())
	}
}

func TestErrorCodeForExit(t *testing.T) {
	cases := map[int]contract.ErrorCode{
		1: contract.ErrGeneric,
		2: contract.ErrUsage,
		3: contract.ErrValidation,
		4: contract.ErrNotFound,
		5: contract.ErrRemote,
		6: contract.ErrTransport,
	}
	for code, want := range cases {
		if got := errorCodeForExit(code); got != want {
			t.Fatalf("errorCodeForExit(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestHistoryRecordsMutations(t *testing.T) {
	fb := &captureBackend{}
	withFakeBackend(t, fb)

	_, _, err := run(t, "events", "add", "--title", "dinner", "--date", "2025-06-10", "--all-day", "--json")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	entries, err := readHistory(0)
	if err != nil {
		t.Fatalf("readHistory: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "add" {
		t.Fatalf("history = %+v", entries)
	}
}
