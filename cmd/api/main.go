package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saferoute/internal/api"
	"saferoute/internal/config"
	"saferoute/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	srv, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Routing
	mux.HandleFunc("/v1/route", srv.RouteHandler)
	mux.HandleFunc("/v1/route/stream", srv.StreamHandler)
	mux.HandleFunc("/v1/analysis", srv.AnalysisHandler)
	mux.HandleFunc("/v1/locations", srv.LocationsHandler)

	// Hazard registry
	mux.HandleFunc("/v1/hazards", srv.HazardsHandler)
	mux.HandleFunc("/v1/hazards/", srv.HazardByIDHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Admin
	mux.HandleFunc("/v1/admin/requests", srv.AdminRequestsHandler)
	mux.HandleFunc("/v1/admin/solver-stats", srv.SolverStatsHandler)
	mux.HandleFunc("/debug/info", srv.DebugJSON)

	// Docs and metrics
	mux.HandleFunc("/openapi.yaml", srv.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", srv.OpenAPIJSONHandler)
	mux.HandleFunc("/docs", srv.DocsHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.Notifier.Start()
	defer srv.Notifier.Stop()
	srv.StartJanitor(30 * time.Second)

	log.Printf("API listening on %s", cfg.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
