// Package store caches the events fetched for the current view window
// and projects them onto individual days. It owns the cache
// exclusively: commands read through EventsOn and mutate through
// Create/Update/Delete, never by touching the slice directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hausmates/hcal/internal/backend"
	"github.com/hausmates/hcal/internal/cache"
	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/recurrence"
	"github.com/hausmates/hcal/internal/validate"
	"github.com/hausmates/hcal/internal/view"
)

// ValidationError wraps pre-flight violations so callers can
// distinguish them from backend failures with errors.As.
type ValidationError struct {
	Violations []validate.Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e.Violations[0])
}

// Store is the event cache plus its fetch/mutation pipeline. All
// methods are safe for concurrent use; responses are applied only when
// they belong to the most recently issued request, so a slow stale
// fetch can never overwrite a newer window.
type Store struct {
	be      backend.Backend
	snaps   *cache.Cache // optional offline snapshots
	actorID int64

	mu      sync.Mutex
	events  []contract.Event
	lastQ   *backend.EventQuery
	lastKey string
	stale   bool
	lastErr error
	issued  uint64
}

// New builds a store around an injected backend. snaps may be nil to
// disable offline snapshots.
func New(be backend.Backend, snaps *cache.Cache, actorID int64) *Store {
	return &Store{be: be, snaps: snaps, actorID: actorID}
}

// Load fetches the window described by q and replaces the cache on
// success. On failure the prior cache stays intact and the error is
// retained; if there was nothing cached yet, the last persisted
// snapshot is served instead and the data is marked stale.
func (s *Store) Load(ctx context.Context, q view.Query) error {
	eq := backend.EventQuery{ViewType: q.ViewType, DateTime: q.DateTime}
	return s.load(ctx, eq)
}

// LoadQuery is Load with the full filter surface of the read endpoint.
func (s *Store) LoadQuery(ctx context.Context, eq backend.EventQuery) error {
	return s.load(ctx, eq)
}

func (s *Store) load(ctx context.Context, eq backend.EventQuery) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.lastQ = &eq
	s.lastKey = windowKey(eq)
	s.mu.Unlock()

	events, err := s.be.ListEvents(ctx, eq)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued {
		// A newer request was issued while this one was in flight;
		// applying it would resurrect a window the user already left.
		return nil
	}
	if err != nil {
		s.lastErr = err
		if len(s.events) == 0 && s.snaps != nil {
			if snap, _, serr := s.snaps.Load(s.lastKey); serr == nil && snap != nil {
				s.events = snap
				s.stale = true
			}
		}
		return err
	}
	s.events = events
	s.stale = false
	s.lastErr = nil
	if s.snaps != nil {
		_ = s.snaps.Save(s.lastKey, events)
	}
	return nil
}

// EventsOn projects the cached window onto one calendar day. Matching
// is delegated to the recurrence resolver, then the ownership filter is
// applied: personal mode keeps the actor's own events plus every group
// event, group mode keeps only the selected group. Purely client-side;
// never triggers a fetch.
func (s *Store) EventsOn(day time.Time, mode contract.ViewMode, groupID int64) []contract.Event {
	s.mu.Lock()
	cached := s.events
	s.mu.Unlock()

	var out []contract.Event
	for _, e := range cached {
		if !recurrence.OccursOn(e, day) {
			continue
		}
		switch mode {
		case contract.ModeGroup:
			if e.Scope != contract.ScopeGroup || e.GroupID != groupID {
				continue
			}
		default:
			if e.Scope == contract.ScopePersonal && e.OwnerID != s.actorID {
				continue
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AllDay != out[j].AllDay {
			return out[i].AllDay
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Events returns a copy of the full cached window.
func (s *Store) Events() []contract.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]contract.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Stale reports whether the current cache came from an offline
// snapshot rather than a live fetch.
func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Err returns the most recent load/mutation error. It stays set until
// cleared or superseded by a successful operation.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr drops the retained error state.
func (s *Store) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Create validates the draft, sends it, applies the result locally and
// refetches the window so server-computed fields (the assigned id in
// particular) reconcile.
func (s *Store) Create(ctx context.Context, draft contract.Event) (*contract.Event, error) {
	if vs := validate.Event(draft); len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}
	created, err := s.be.CreateEvent(ctx, draft)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	s.mu.Lock()
	if created != nil {
		s.events = append(s.events, *created)
	}
	s.lastErr = nil
	s.mu.Unlock()
	s.refetch(ctx)
	return created, nil
}

// Update replaces every field of the identified event.
func (s *Store) Update(ctx context.Context, id int64, draft contract.Event) (*contract.Event, error) {
	if vs := validate.Event(draft); len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}
	updated, err := s.be.UpdateEvent(ctx, id, draft)
	if err != nil {
		s.setErr(err)
		return nil, err
	}
	s.mu.Lock()
	if updated != nil {
		for i := range s.events {
			if s.events[i].ID == id {
				s.events[i] = *updated
				break
			}
		}
	}
	s.lastErr = nil
	s.mu.Unlock()
	s.refetch(ctx)
	return updated, nil
}

// Delete removes the event. The delete scope and instance date are
// forwarded to the backend, but the cached record is removed whole:
// the core does not model partial-series deletion.
func (s *Store) Delete(ctx context.Context, id int64, dt contract.DeleteType, instance time.Time) error {
	if err := s.be.DeleteEvent(ctx, id, dt, instance); err != nil {
		s.setErr(err)
		return err
	}
	s.mu.Lock()
	kept := s.events[:0]
	for _, e := range s.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.events = kept
	s.lastErr = nil
	s.mu.Unlock()
	s.refetch(ctx)
	return nil
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// refetch reloads the last window after a mutation so server-computed
// fields reconcile. A failed refetch keeps the locally applied state.
func (s *Store) refetch(ctx context.Context) {
	s.mu.Lock()
	q := s.lastQ
	s.mu.Unlock()
	if q == nil {
		return
	}
	_ = s.load(ctx, *q)
}

// IsValidation reports whether err carries pre-flight violations.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func windowKey(q backend.EventQuery) string {
	return fmt.Sprintf("%s|%s|%s|%d", q.ViewType, q.DateTime, q.Category, q.GroupID)
}
