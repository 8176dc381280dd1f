//go:build postgres_integration

package store

import (
	"os"
	"testing"
	"time"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.MigrateDir("../../db/migrations"); err != nil {
		t.Fatalf("MigrateDir: %v", err)
	}

	h, err := p.AddHazard(t.Context(), 23.80, 86.43, "integration")
	if err != nil {
		t.Fatalf("AddHazard: %v", err)
	}
	if err := p.DeleteHazard(t.Context(), h.ID); err != nil {
		t.Fatalf("DeleteHazard: %v", err)
	}

	rec := RouteRecord{RequestedAt: time.Now().UTC(), Lambda: 1, Tour: []int{0, 1, 0}, Algorithm: "held-karp"}
	if err := p.SaveRouteRecord(t.Context(), rec); err != nil {
		t.Fatalf("SaveRouteRecord: %v", err)
	}
	if _, _, err := p.ListRouteRecords(t.Context(), "", 1); err != nil {
		t.Fatalf("ListRouteRecords: %v", err)
	}
}

func TestPostgresHistoryPaginationWithTiedTimestamps(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if err := p.MigrateDir("../../db/migrations"); err != nil {
		t.Fatalf("MigrateDir: %v", err)
	}

	// Identical requested_at across all rows forces the keyset predicate
	// to disambiguate on id alone.
	at := time.Now().UTC().Truncate(time.Second)
	lambda := float64(time.Now().UnixNano())
	for i := 0; i < 5; i++ {
		rec := RouteRecord{RequestedAt: at, Lambda: lambda, Tour: []int{0, 1, 0}, Algorithm: "held-karp"}
		if err := p.SaveRouteRecord(t.Context(), rec); err != nil {
			t.Fatalf("SaveRouteRecord: %v", err)
		}
	}

	seen := map[string]bool{}
	cursor := ""
	for {
		items, next, err := p.ListRouteRecords(t.Context(), cursor, 2)
		if err != nil {
			t.Fatalf("ListRouteRecords: %v", err)
		}
		for _, it := range items {
			if it.Lambda != lambda {
				continue
			}
			if seen[it.ID] {
				t.Fatalf("row %s returned twice across pages", it.ID)
			}
			seen[it.ID] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 5 {
		t.Fatalf("pagination returned %d of 5 tied rows", len(seen))
	}
}
