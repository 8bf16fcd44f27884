package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicebartender/bci-bridge/bridge"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRecordDispatch(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	results := []bridge.Result{
		{
			Outcome:      bridge.OutcomeDelivered,
			Command:      bridge.Command{Kind: bridge.Left, Strength: 0.8, Timestamp: base},
			SentStrength: 0.8,
			At:           base,
		},
		{
			Outcome: bridge.OutcomeFailed,
			Reason:  &bridge.DeliveryError{StatusCode: 500},
			Command: bridge.Command{Kind: bridge.Push, Strength: 0.6},
			At:      base.Add(time.Second),
		},
		{
			Outcome: bridge.OutcomeRejected,
			Reason:  bridge.ErrConsumerUnreachable,
			Command: bridge.Command{Kind: bridge.Lift, Strength: 0.9},
			At:      base.Add(2 * time.Second),
		},
	}
	for _, r := range results {
		if err := database.RecordDispatch(ctx, r); err != nil {
			t.Fatalf("RecordDispatch: %v", err)
		}
	}

	got, err := database.RecentDispatches(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDispatches: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d dispatches, want 3", len(got))
	}
	if got[0].Command != "lift" || got[0].Status != "rejected" || got[0].Reason != "consumer unreachable" {
		t.Errorf("newest = %+v", got[0])
	}
	if got[1].Reason != "delivery failed: status 500" {
		t.Errorf("failed reason = %q", got[1].Reason)
	}
	if got[2].ClassifiedAt == nil || !got[2].ClassifiedAt.Equal(base) {
		t.Errorf("classifiedAt = %v, want %v", got[2].ClassifiedAt, base)
	}
	if got[1].ClassifiedAt != nil {
		t.Errorf("classifiedAt = %v, want nil", got[1].ClassifiedAt)
	}

	counts, err := database.DispatchCounts(ctx)
	if err != nil {
		t.Fatalf("DispatchCounts: %v", err)
	}
	if counts["delivered"] != 1 || counts["failed"] != 1 || counts["rejected"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRecentDispatchesLimit(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := database.InsertDispatch(ctx, Dispatch{
			Command:   "right",
			Strength:  0.5,
			Status:    "delivered",
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("InsertDispatch: %v", err)
		}
	}

	got, err := database.RecentDispatches(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDispatches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].ID < got[1].ID {
		t.Errorf("expected newest first, got ids %d, %d", got[0].ID, got[1].ID)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
