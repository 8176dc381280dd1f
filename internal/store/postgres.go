package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies every .sql file in dir in lexical order. Statements are
// idempotent (CREATE TABLE IF NOT EXISTS), so re-running at startup is safe.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if _, err := p.db.Exec(string(body)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) AddHazard(ctx context.Context, lat, lng float64, note string) (Hazard, error) {
	h := Hazard{ID: uuid.New().String(), Lat: lat, Lng: lng, Note: note, CreatedAt: time.Now().UTC()}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO hazards (id, lat, lng, note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		h.ID, h.Lat, h.Lng, h.Note, h.CreatedAt)
	if err != nil {
		return Hazard{}, err
	}
	return h, nil
}

func (p *Postgres) ListHazards(ctx context.Context) ([]Hazard, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, lat, lng, note, created_at FROM hazards ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Hazard{}
	for rows.Next() {
		var h Hazard
		if err := rows.Scan(&h.ID, &h.Lat, &h.Lng, &h.Note, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteHazard(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM hazards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ClearHazards(ctx context.Context) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM hazards`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (p *Postgres) ExpireHazards(ctx context.Context, cutoff time.Time) ([]Hazard, error) {
	rows, err := p.db.QueryContext(ctx,
		`DELETE FROM hazards WHERE created_at < $1 RETURNING id, lat, lng, note, created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var expired []Hazard
	for rows.Next() {
		var h Hazard
		if err := rows.Scan(&h.ID, &h.Lat, &h.Lng, &h.Note, &h.CreatedAt); err != nil {
			return nil, err
		}
		expired = append(expired, h)
	}
	return expired, rows.Err()
}

func (p *Postgres) SaveRouteRecord(ctx context.Context, rec RouteRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	tour, err := json.Marshal(rec.Tour)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO route_requests (id, requested_at, lambda, hazard_count, algorithm, tour, total_distance, total_risk, total_cost, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.RequestedAt, rec.Lambda, rec.HazardCount, rec.Algorithm, string(tour),
		rec.TotalDistance, rec.TotalRisk, rec.TotalCost, rec.DurationMs)
	return err
}

func (p *Postgres) ListRouteRecords(ctx context.Context, cursor string, limit int) ([]RouteRecord, string, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, requested_at, lambda, hazard_count, algorithm, tour, total_distance, total_risk, total_cost, duration_ms
			 FROM route_requests ORDER BY requested_at DESC, id DESC LIMIT $1`, limit+1)
	} else {
		// Keyset pagination: the tuple comparison must mirror the sort
		// order exactly or ties on requested_at skip or repeat rows.
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, requested_at, lambda, hazard_count, algorithm, tour, total_distance, total_risk, total_cost, duration_ms
			 FROM route_requests
			 WHERE (requested_at, id) < (SELECT requested_at, id FROM route_requests WHERE id = $1)
			 ORDER BY requested_at DESC, id DESC LIMIT $2`, cursor, limit+1)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []RouteRecord{}
	for rows.Next() {
		var rec RouteRecord
		var tour string
		if err := rows.Scan(&rec.ID, &rec.RequestedAt, &rec.Lambda, &rec.HazardCount, &rec.Algorithm, &tour,
			&rec.TotalDistance, &rec.TotalRisk, &rec.TotalCost, &rec.DurationMs); err != nil {
			return nil, "", err
		}
		if err := json.Unmarshal([]byte(tour), &rec.Tour); err != nil {
			return nil, "", err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}

var _ Store = (*Postgres)(nil)
