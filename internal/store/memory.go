package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu      sync.Mutex
	hazards []Hazard
	records []RouteRecord // newest first
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AddHazard(ctx context.Context, lat, lng float64, note string) (Hazard, error) {
	h := Hazard{ID: uuid.New().String(), Lat: lat, Lng: lng, Note: note, CreatedAt: time.Now().UTC()}
	m.mu.Lock()
	m.hazards = append(m.hazards, h)
	m.mu.Unlock()
	return h, nil
}

func (m *Memory) ListHazards(ctx context.Context) ([]Hazard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Hazard(nil), m.hazards...), nil
}

func (m *Memory) DeleteHazard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, h := range m.hazards {
		if h.ID == id {
			m.hazards = append(m.hazards[:i], m.hazards[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ClearHazards(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.hazards)
	m.hazards = nil
	return n, nil
}

func (m *Memory) ExpireHazards(ctx context.Context, cutoff time.Time) ([]Hazard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []Hazard
	kept := m.hazards[:0]
	for _, h := range m.hazards {
		if h.CreatedAt.Before(cutoff) {
			expired = append(expired, h)
		} else {
			kept = append(kept, h)
		}
	}
	m.hazards = kept
	return expired, nil
}

func (m *Memory) SaveRouteRecord(ctx context.Context, rec RouteRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	m.mu.Lock()
	m.records = append([]RouteRecord{rec}, m.records...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListRouteRecords(ctx context.Context, cursor string, limit int) ([]RouteRecord, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		for i, r := range m.records {
			if r.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []RouteRecord{}
	var next string
	for i := start; i < len(m.records) && len(out) < limit; i++ {
		out = append(out, m.records[i])
		next = m.records[i].ID
	}
	if start+len(out) >= len(m.records) {
		next = ""
	}
	return out, next, nil
}
