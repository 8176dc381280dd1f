package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryHazardLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h1, err := m.AddHazard(ctx, 23.80, 86.43, "pothole")
	if err != nil {
		t.Fatalf("AddHazard: %v", err)
	}
	if h1.ID == "" || h1.CreatedAt.IsZero() {
		t.Fatalf("hazard missing identity: %+v", h1)
	}
	h2, _ := m.AddHazard(ctx, 23.81, 86.44, "")

	list, err := m.ListHazards(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListHazards = %v, %v", list, err)
	}

	if err := m.DeleteHazard(ctx, h1.ID); err != nil {
		t.Fatalf("DeleteHazard: %v", err)
	}
	if err := m.DeleteHazard(ctx, h1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	list, _ = m.ListHazards(ctx)
	if len(list) != 1 || list[0].ID != h2.ID {
		t.Fatalf("unexpected remaining hazards: %v", list)
	}

	n, err := m.ClearHazards(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearHazards = %d, %v", n, err)
	}
}

func TestMemoryExpireHazards(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	old, _ := m.AddHazard(ctx, 1, 2, "old")
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now().UTC()
	fresh, _ := m.AddHazard(ctx, 3, 4, "fresh")

	expired, err := m.ExpireHazards(ctx, cutoff)
	if err != nil {
		t.Fatalf("ExpireHazards: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != old.ID {
		t.Fatalf("expired = %v", expired)
	}
	list, _ := m.ListHazards(ctx)
	if len(list) != 1 || list[0].ID != fresh.ID {
		t.Fatalf("remaining = %v", list)
	}
}

func TestMemoryRouteRecordsNewestFirstWithCursor(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec := RouteRecord{
			RequestedAt: time.Now().UTC(),
			Lambda:      1,
			Tour:        []int{0, 1, 2, 0},
			Algorithm:   "held-karp",
			DurationMs:  i,
		}
		if err := m.SaveRouteRecord(ctx, rec); err != nil {
			t.Fatalf("SaveRouteRecord: %v", err)
		}
	}

	page1, next, err := m.ListRouteRecords(ctx, "", 2)
	if err != nil || len(page1) != 2 || next == "" {
		t.Fatalf("page1 = %v, next = %q, err = %v", page1, next, err)
	}
	if page1[0].DurationMs != 4 {
		t.Fatalf("expected newest first, got %+v", page1[0])
	}

	page2, next2, err := m.ListRouteRecords(ctx, next, 2)
	if err != nil || len(page2) != 2 {
		t.Fatalf("page2 = %v, err = %v", page2, err)
	}
	if page2[0].ID == page1[1].ID {
		t.Fatalf("cursor did not advance")
	}

	page3, next3, err := m.ListRouteRecords(ctx, next2, 2)
	if err != nil || len(page3) != 1 || next3 != "" {
		t.Fatalf("page3 = %v, next = %q, err = %v", page3, next3, err)
	}
}
