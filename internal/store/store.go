// Package store persists the hazard registry and the route request history.
package store

import (
	"context"
	"errors"
	"time"
)

// Hazard is a registered hazard report. Unlike the per-request hazard points
// the core consumes, registry entries carry identity so the UI collaborator
// can remove them individually.
type Hazard struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RouteRecord is one computed route, kept for the admin history listing.
type RouteRecord struct {
	ID            string    `json:"id"`
	RequestedAt   time.Time `json:"requestedAt"`
	Lambda        float64   `json:"lambda"`
	HazardCount   int       `json:"hazardCount"`
	Algorithm     string    `json:"algorithm"`
	Tour          []int     `json:"tour"`
	TotalDistance float64   `json:"totalDistance"`
	TotalRisk     float64   `json:"totalRisk"`
	TotalCost     float64   `json:"totalCost"`
	DurationMs    int       `json:"durationMs"`
}

// Store is the persistence interface used by the API server.
type Store interface {
	// Hazard registry
	AddHazard(ctx context.Context, lat, lng float64, note string) (Hazard, error)
	ListHazards(ctx context.Context) ([]Hazard, error)
	DeleteHazard(ctx context.Context, id string) error
	ClearHazards(ctx context.Context) (int, error)
	// ExpireHazards removes hazards created before cutoff and returns them.
	ExpireHazards(ctx context.Context, cutoff time.Time) ([]Hazard, error)

	// Request history
	SaveRouteRecord(ctx context.Context, rec RouteRecord) error
	ListRouteRecords(ctx context.Context, cursor string, limit int) ([]RouteRecord, string, error)
}

var ErrNotFound = errors.New("not found")
