package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
)

const eventsPath = "/api/calendar/events"

// REST talks to the household service over HTTP. Construct with
// NewREST and inject wherever a Backend is needed; there is no package
// singleton.
type REST struct {
	base   string
	token  string
	client *http.Client
	loc    *time.Location
	log    *slog.Logger
}

func NewREST(baseURL, token string, client *http.Client, log *slog.Logger) *REST {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &REST{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: client,
		loc:    time.Local,
		log:    log,
	}
}

// SetLocation overrides the zone naive wire strings are interpreted in.
func (r *REST) SetLocation(loc *time.Location) {
	if loc != nil {
		r.loc = loc
	}
}

func (r *REST) Ping(ctx context.Context) error {
	_, err := r.do(ctx, http.MethodGet, "/health", nil, false)
	return err
}

func (r *REST) ListEvents(ctx context.Context, q EventQuery) ([]contract.Event, error) {
	params := url.Values{}
	if q.ViewType != "" {
		params.Set("viewType", q.ViewType)
	}
	if q.DateTime != "" {
		params.Set("dateTime", q.DateTime)
	}
	if q.Category != "" {
		params.Set("category", encodeCategory(q.Category))
	}
	if q.GroupID != 0 {
		params.Set("groupId", strconv.FormatInt(q.GroupID, 10))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		params.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}

	path := eventsPath
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	body, err := r.do(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}

	wires, err := decodeCollection(body)
	if err != nil {
		// Shape mismatch degrades to an empty window rather than an
		// error; the read contract tolerates unknown wrappers.
		r.log.Warn("unrecognized events response shape", "len", len(body))
		return nil, nil
	}
	events := make([]contract.Event, 0, len(wires))
	for _, w := range wires {
		events = append(events, decodeEvent(w, r.loc))
	}
	return events, nil
}

func (r *REST) CreateEvent(ctx context.Context, e contract.Event) (*contract.Event, error) {
	return r.writeEvent(ctx, http.MethodPost, eventsPath, e)
}

func (r *REST) UpdateEvent(ctx context.Context, id int64, e contract.Event) (*contract.Event, error) {
	return r.writeEvent(ctx, http.MethodPut, fmt.Sprintf("%s/%d", eventsPath, id), e)
}

func (r *REST) writeEvent(ctx context.Context, method, path string, e contract.Event) (*contract.Event, error) {
	payload, err := json.Marshal(encodeEvent(e))
	if err != nil {
		return nil, err
	}
	body, err := r.do(ctx, method, path, payload, true)
	if err != nil {
		return nil, err
	}
	wires, err := decodeCollection(body)
	if err != nil || len(wires) == 0 {
		// Some deployments answer mutations with an empty body; the
		// follow-up window refetch reconciles server-assigned fields.
		out := e
		return &out, nil
	}
	out := decodeEvent(wires[0], r.loc)
	return &out, nil
}

func (r *REST) DeleteEvent(ctx context.Context, id int64, dt contract.DeleteType, instance time.Time) error {
	params := url.Values{}
	if dt != "" {
		params.Set("deleteType", string(dt))
	}
	if !instance.IsZero() {
		params.Set("instanceDate", naivetime.EncodeDate(instance))
	}
	path := fmt.Sprintf("%s/%d", eventsPath, id)
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	_, err := r.do(ctx, http.MethodDelete, path, nil, true)
	return err
}

func (r *REST) do(ctx context.Context, method, path string, payload []byte, mutation bool) ([]byte, error) {
	op := method + " " + path
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, reqBody)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if mutation {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug("backend call failed", "op", op, "err", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	r.log.Debug("backend call", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Status: resp.StatusCode, Message: remoteMessage(body)}
	}
	return body, nil
}

// remoteMessage digs a human-readable message out of an error body.
// Returns "" when the body is not parseable, leaving RemoteError to
// fall back to a status-coded generic.
func remoteMessage(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if len(envelope.Error) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Error, &s); err == nil {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil {
			return nested.Message
		}
	}
	return ""
}
