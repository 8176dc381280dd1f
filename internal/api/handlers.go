package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"saferoute/internal/metrics"
	"saferoute/internal/opt"
	"saferoute/internal/risk"
	"saferoute/internal/route"
	"saferoute/internal/store"
)

// registryHazards loads the stored hazard registry as solver input points.
func (s *Server) registryHazards(r *http.Request) ([]risk.HazardPoint, error) {
	hs, err := s.Store.ListHazards(r.Context())
	if err != nil {
		return nil, err
	}
	pts := make([]risk.HazardPoint, 0, len(hs))
	for _, h := range hs {
		pts = append(pts, risk.HazardPoint{Lat: h.Lat, Lng: h.Lng})
	}
	return pts, nil
}

// compute runs one route computation and records metrics plus the request
// history row.
func (s *Server) compute(r *http.Request, hazards []risk.HazardPoint, lambda float64) (route.Result, error) {
	res, st, err := s.Service.ComputeRouteWithLambda(r.Context(), hazards, lambda)
	if err != nil {
		metrics.RoutesComputed.WithLabelValues("error").Inc()
		return route.Result{}, err
	}
	metrics.RoutesComputed.WithLabelValues("ok").Inc()
	metrics.SolveDuration.WithLabelValues(st.Algorithm).Observe(st.Elapsed.Seconds())
	metrics.ContaminatedEdges.Observe(float64(res.ContaminatedEdges))
	opt.RecordStats(st)

	rec := store.RouteRecord{
		RequestedAt:   time.Now().UTC(),
		Lambda:        res.Lambda,
		HazardCount:   len(hazards),
		Algorithm:     res.Algorithm,
		Tour:          res.Tour,
		TotalDistance: res.TotalDistance,
		TotalRisk:     res.TotalRisk,
		TotalCost:     res.TotalCost,
		DurationMs:    int(st.Elapsed.Milliseconds()),
	}
	if err := s.Store.SaveRouteRecord(r.Context(), rec); err != nil {
		// History is best-effort; the computed route is still valid.
		log.Printf("save route record: %v", err)
	}
	s.Broker.Publish(topicEvents, Event{Type: "route.computed", Data: map[string]any{
		"tour":      res.Tour,
		"totalCost": res.TotalCost,
		"algorithm": res.Algorithm,
	}})
	return res, nil
}

func (s *Server) writeRoute(w http.ResponseWriter, r *http.Request, res route.Result) {
	if strings.EqualFold(r.URL.Query().Get("format"), "geojson") {
		writeJSON(w, http.StatusOK, route.ToGeoJSON(s.Service.Graph(), res))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RouteHandler handles POST/GET /v1/route. GET computes against the stored
// hazard registry; POST accepts an explicit hazard set and lambda override.
func (s *Server) RouteHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hazards, err := s.registryHazards(r)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Hazard registry unavailable", err.Error(), r.URL.Path)
			return
		}
		lambda := s.Service.Lambda()
		if v := r.URL.Query().Get("lambda"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid lambda", err.Error(), r.URL.Path)
				return
			}
			if err := validateLambda(f); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid lambda", err.Error(), r.URL.Path)
				return
			}
			lambda = f
		}
		res, err := s.compute(r, hazards, lambda)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Route computation failed", err.Error(), r.URL.Path)
			return
		}
		s.writeRoute(w, r, res)
	case http.MethodPost:
		var req struct {
			Hazards []risk.HazardPoint `json:"hazards"`
			Lambda  *float64           `json:"lambda"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		hazards := req.Hazards
		if hazards == nil {
			var err error
			if hazards, err = s.registryHazards(r); err != nil {
				writeProblem(w, http.StatusInternalServerError, "Hazard registry unavailable", err.Error(), r.URL.Path)
				return
			}
		} else if err := validateHazards(hazards); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid hazards", err.Error(), r.URL.Path)
			return
		}
		lambda := s.Service.Lambda()
		if req.Lambda != nil {
			if err := validateLambda(*req.Lambda); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid lambda", err.Error(), r.URL.Path)
				return
			}
			lambda = *req.Lambda
		}
		res, err := s.compute(r, hazards, lambda)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Route computation failed", err.Error(), r.URL.Path)
			return
		}
		s.writeRoute(w, r, res)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HazardsHandler handles GET/POST/DELETE /v1/hazards.
func (s *Server) HazardsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hs, err := s.Store.ListHazards(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List hazards failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": hs})
	case http.MethodPost:
		var req struct {
			Lat  float64 `json:"lat"`
			Lng  float64 `json:"lng"`
			Note string  `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateHazard(req.Lat, req.Lng); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid hazard", err.Error(), r.URL.Path)
			return
		}
		h, err := s.Store.AddHazard(r.Context(), req.Lat, req.Lng, req.Note)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Add hazard failed", err.Error(), r.URL.Path)
			return
		}
		s.refreshHazardGauge(r.Context())
		data := map[string]any{"id": h.ID, "lat": h.Lat, "lng": h.Lng, "note": h.Note}
		s.Broker.Publish(topicEvents, Event{Type: "hazard.reported", Data: data})
		s.Notifier.Emit("hazard.reported", data)
		writeJSON(w, http.StatusCreated, h)
	case http.MethodDelete:
		n, err := s.Store.ClearHazards(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Clear hazards failed", err.Error(), r.URL.Path)
			return
		}
		s.refreshHazardGauge(r.Context())
		data := map[string]any{"cleared": n}
		s.Broker.Publish(topicEvents, Event{Type: "hazard.cleared", Data: data})
		s.Notifier.Emit("hazard.cleared", data)
		writeJSON(w, http.StatusOK, data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HazardByIDHandler handles DELETE /v1/hazards/{id}.
func (s *Server) HazardByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/hazards/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.DeleteHazard(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Hazard not found", id, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete hazard failed", err.Error(), r.URL.Path)
		return
	}
	s.refreshHazardGauge(r.Context())
	data := map[string]any{"id": id}
	s.Broker.Publish(topicEvents, Event{Type: "hazard.cleared", Data: data})
	s.Notifier.Emit("hazard.cleared", data)
	w.WriteHeader(http.StatusNoContent)
}

// AnalysisHandler handles GET /v1/analysis: the distance/risk trade-off
// sweep over the stored hazard registry.
func (s *Server) AnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	steps := 10
	if v := r.URL.Query().Get("steps"); v != "" {
		fmt.Sscanf(v, "%d", &steps)
	}
	maxLambda := s.Service.Lambda()
	if v := r.URL.Query().Get("maxLambda"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid maxLambda", err.Error(), r.URL.Path)
			return
		}
		maxLambda = f
	}
	if err := validateSweep(steps, maxLambda); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid analysis request", err.Error(), r.URL.Path)
		return
	}
	hazards, err := s.registryHazards(r)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Hazard registry unavailable", err.Error(), r.URL.Path)
		return
	}
	points, err := s.Service.Sweep(r.Context(), hazards, steps, maxLambda)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Analysis failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

// LocationsHandler handles GET /v1/locations.
func (s *Server) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Service.Graph().Locations()})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using the Postgres store.
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// AdminRequestsHandler handles GET /v1/admin/requests: the route request
// history with cursor pagination.
func (s *Server) AdminRequestsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListRouteRecords(r.Context(), cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List requests failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// SolverStatsHandler handles GET /v1/admin/solver-stats.
func (s *Server) SolverStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	runs, last := opt.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "last": last})
}
