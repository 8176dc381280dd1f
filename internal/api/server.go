// Package api implements the HTTP surface of the SafeRoute service.
package api

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"saferoute/internal/config"
	"saferoute/internal/geo"
	"saferoute/internal/metrics"
	"saferoute/internal/notify"
	"saferoute/internal/opt"
	"saferoute/internal/risk"
	"saferoute/internal/route"
	"saferoute/internal/store"
)

type Server struct {
	Cfg      config.Config
	Store    store.Store
	Service  *route.Service
	Broker   EventBroker
	Notifier *notify.Notifier

	limiter *rate.Limiter
}

// NewServer wires the core packages from a validated config. If
// DATABASE_URL is unset, uses the in-memory store; if REDIS_URL is unset,
// uses the in-process broker.
func NewServer(cfg config.Config) (*Server, error) {
	graph := geo.NewGraph(cfg.Locations)
	model := risk.NewModel(graph, cfg.NodeRisk, cfg.HazardRadiusM, cfg.BlockRisk)
	solver := opt.NewSolver(cfg.ExactMaxNodes)
	svc := route.NewService(graph, model, solver, cfg.Lambda)

	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := sp.MigrateDir("db/migrations"); err != nil {
			log.Printf("migrate: %v", err)
		}
		st = sp
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			log.Printf("redis broker unavailable, using in-memory: %v", err)
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	endpoints := make([]notify.Endpoint, 0, len(cfg.Webhooks))
	for _, w := range cfg.Webhooks {
		endpoints = append(endpoints, notify.Endpoint{URL: w.URL, Secret: w.Secret, Events: w.Events})
	}

	metrics.RegisterDefault()

	return &Server{
		Cfg:      cfg,
		Store:    st,
		Service:  svc,
		Broker:   broker,
		Notifier: notify.New(endpoints, 0),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst),
	}, nil
}

// StartJanitor launches the hazard TTL sweep. A zero TTL disables expiry.
func (s *Server) StartJanitor(interval time.Duration) {
	if time.Duration(s.Cfg.HazardTTL) <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			s.expireOnce(context.Background())
		}
	}()
}

func (s *Server) expireOnce(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(s.Cfg.HazardTTL))
	expired, err := s.Store.ExpireHazards(ctx, cutoff)
	if err != nil {
		log.Printf("hazard expiry: %v", err)
		return
	}
	for _, h := range expired {
		data := map[string]any{"id": h.ID, "lat": h.Lat, "lng": h.Lng}
		s.Broker.Publish(topicEvents, Event{Type: "hazard.expired", Data: data})
		s.Notifier.Emit("hazard.expired", data)
	}
	if len(expired) > 0 {
		s.refreshHazardGauge(ctx)
	}
}

func (s *Server) refreshHazardGauge(ctx context.Context) {
	if hs, err := s.Store.ListHazards(ctx); err == nil {
		metrics.HazardsActive.Set(float64(len(hs)))
	}
}
