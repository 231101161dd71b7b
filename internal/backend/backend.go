// Package backend is the boundary to the remote household service. The
// Backend interface is what the store and commands program against; the
// REST implementation lives in rest.go and is injected explicitly so
// the core stays testable without a live network.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/hausmates/hcal/internal/contract"
)

// EventQuery carries the read-endpoint parameters. ViewType and
// DateTime come from the view window; the rest are optional filters the
// server applies before responding.
type EventQuery struct {
	ViewType string
	DateTime string
	Category contract.Category
	GroupID  int64
	Page     int
	Size     int
	Sort     string
}

type Backend interface {
	Ping(context.Context) error
	ListEvents(context.Context, EventQuery) ([]contract.Event, error)
	CreateEvent(context.Context, contract.Event) (*contract.Event, error)
	UpdateEvent(context.Context, int64, contract.Event) (*contract.Event, error)
	DeleteEvent(context.Context, int64, contract.DeleteType, time.Time) error
}

// TransportError means the call to the backend itself failed: the
// request never completed. It wraps the underlying network error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError means the backend answered with a non-success status.
// Message is taken from a parseable error body when one exists.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}
