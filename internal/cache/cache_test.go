package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hausmates/hcal/internal/contract"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := openTemp(t)
	events := []contract.Event{
		{ID: 1, Title: "rent", Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), AllDay: true, Category: contract.CategoryBill},
		{ID: 2, Title: "dinner", Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), StartTime: "18:00", EndTime: "19:00"},
	}
	if err := c.Save("MONTHLY|2025-06-01||0", events); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, fetchedAt, err := c.Load("MONTHLY|2025-06-01||0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].Title != "rent" || got[1].StartTime != "18:00" {
		t.Fatalf("round trip = %+v", got)
	}
	if fetchedAt.IsZero() {
		t.Fatal("fetched_at should be recorded")
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	c := openTemp(t)
	key := "WEEKLY|2025-06-09||0"
	if err := c.Save(key, []contract.Event{{ID: 1, Title: "old"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.Save(key, []contract.Event{{ID: 2, Title: "new"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, err := c.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Title != "new" {
		t.Fatalf("snapshot = %+v, want the newer one", got)
	}
}

func TestLoadMissingKey(t *testing.T) {
	c := openTemp(t)
	got, fetchedAt, err := c.Load("nothing|here||0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil || !fetchedAt.IsZero() {
		t.Fatalf("missing key = %+v at %v, want nil and zero", got, fetchedAt)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Save("k", []contract.Event{{ID: 9, Title: "persisted"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c.Close()

	c2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	got, _, err := c2.Load("k")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Title != "persisted" {
		t.Fatalf("snapshot after reopen = %+v", got)
	}
}
