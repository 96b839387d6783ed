// internal/storage/signal/memory_test.go
package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/augur/internal/core"
)

func TestMemoryStore_SaveAndList(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	summary := core.SignalSummary{
		ID:              "abc",
		SignalID:        "S3",
		Timestamp:       time.Now(),
		ConfidenceScore: 71.2,
		Decision:        core.DecisionBuy,
		AdaptiveWeight:  1.1,
	}

	if err := store.Save(ctx, summary); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	summaries, err := store.List(ctx, ListFilter{SignalID: "S3"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].ID != "abc" {
		t.Errorf("expected caller ID to be kept, got %s", summaries[0].ID)
	}
}

func TestMemoryStore_ListByDecision(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	store.Save(ctx, core.SignalSummary{SignalID: "S1", Decision: core.DecisionBuy, Timestamp: time.Now()})
	store.Save(ctx, core.SignalSummary{SignalID: "S2", Decision: core.DecisionHold, Timestamp: time.Now()})

	summaries, _ := store.List(ctx, ListFilter{Decision: core.DecisionBuy})
	if len(summaries) != 1 {
		t.Errorf("expected 1, got %d", len(summaries))
	}
}

func TestMemoryStore_ListByTimeRange(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	now := time.Now()
	store.Save(ctx, core.SignalSummary{SignalID: "S1", Timestamp: now.Add(-2 * time.Hour)})
	store.Save(ctx, core.SignalSummary{SignalID: "S2", Timestamp: now})

	summaries, _ := store.List(ctx, ListFilter{From: now.Add(-1 * time.Hour)})
	if len(summaries) != 1 {
		t.Errorf("expected 1, got %d", len(summaries))
	}
}

func TestMemoryStore_NewestFirstAndMaxSize(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	store.Save(ctx, core.SignalSummary{SignalID: "A", Timestamp: time.Now()})
	store.Save(ctx, core.SignalSummary{SignalID: "B", Timestamp: time.Now()})
	store.Save(ctx, core.SignalSummary{SignalID: "C", Timestamp: time.Now()})

	summaries, _ := store.List(ctx, ListFilter{})
	if len(summaries) != 2 {
		t.Fatalf("expected 2 (max size), got %d", len(summaries))
	}
	if summaries[0].SignalID != "C" || summaries[1].SignalID != "B" {
		t.Errorf("expected newest first, got %s, %s", summaries[0].SignalID, summaries[1].SignalID)
	}

	limited, _ := store.List(ctx, ListFilter{Limit: 1})
	if len(limited) != 1 || limited[0].SignalID != "C" {
		t.Errorf("limit should keep the newest summary")
	}
	if n, _ := store.Count(ctx, ListFilter{}); n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}

func TestMemoryStore_GetByID(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	store.Save(ctx, core.SignalSummary{SignalID: "S4", Timestamp: time.Now()})

	summaries, _ := store.List(ctx, ListFilter{})
	if len(summaries) == 0 {
		t.Fatal("no summaries saved")
	}

	retrieved, err := store.GetByID(ctx, summaries[0].ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.SignalID != "S4" {
		t.Errorf("wrong signal id: %s", retrieved.SignalID)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
