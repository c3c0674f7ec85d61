package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "exp_aaa", Source: "shipments", Mode: "streaming", Status: StatusSuccess, Rows: 437, Filename: "shipments.csv", StartedAt: base, FinishedAt: base.Add(30 * time.Second)},
		{ID: "exp_bbb", Source: "returns", Mode: "client", Status: StatusFailed, Error: "listing endpoint down", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(90 * time.Second)},
		{ID: "exp_ccc", Source: "credits", Mode: "streaming", Status: StatusCancelled, Rows: 12, StartedAt: base.Add(2 * time.Minute), FinishedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s): %v", e.ID, err)
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}

	// Most recent first
	if got[0].ID != "exp_ccc" || got[1].ID != "exp_bbb" || got[2].ID != "exp_aaa" {
		t.Errorf("order = %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}

	first := got[2]
	if first.Source != "shipments" || first.Mode != "streaming" || first.Status != StatusSuccess {
		t.Errorf("entry fields = %+v", first)
	}
	if first.Rows != 437 || first.Filename != "shipments.csv" {
		t.Errorf("entry payload = %+v", first)
	}
	if !first.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", first.StartedAt, base)
	}

	failed := got[1]
	if failed.Status != StatusFailed || failed.Error != "listing endpoint down" {
		t.Errorf("failed entry = %+v", failed)
	}
}

func TestRecord_AssignsID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	err := store.Record(ctx, Entry{
		Source: "storage", Mode: "client", Status: StatusSuccess,
		StartedAt: now, FinishedAt: now,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if !strings.HasPrefix(got[0].ID, "exp_") || len(got[0].ID) != len("exp_")+8 {
		t.Errorf("assigned ID = %q", got[0].ID)
	}
}

func TestRecord_DuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	e := Entry{ID: "exp_dup", Source: "shipments", Mode: "streaming", Status: StatusSuccess, StartedAt: now, FinishedAt: now}
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	if err := store.Record(ctx, e); err == nil {
		t.Error("expected error on duplicate ID")
	}
}

func TestRecent_Limit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.Record(ctx, Entry{
			Source: "shipments", Mode: "streaming", Status: StatusSuccess,
			StartedAt: base, FinishedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2", len(got))
	}
}

func TestRecent_Empty(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries from empty store", len(got))
	}
}
