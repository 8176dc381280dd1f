// Package route orchestrates the geometry, risk and optimizer layers into a
// per-request computation.
package route

import (
	"context"
	"fmt"
	"math"

	"saferoute/internal/geo"
	"saferoute/internal/opt"
	"saferoute/internal/risk"
)

// Result is the outcome of one route computation. It is derived fresh per
// request and never mutated in place.
type Result struct {
	Tour              []int   `json:"tour"`
	TotalDistance     float64 `json:"totalDistance"`
	TotalRisk         float64 `json:"totalRisk"`
	TotalCost         float64 `json:"totalCost"`
	Lambda            float64 `json:"lambda"`
	Algorithm         string  `json:"algorithm"`
	HazardActive      bool    `json:"hazardActive"`
	ContaminatedEdges int     `json:"contaminatedEdges"`
}

// TradeoffPoint is one sample of the distance/risk frontier for a given
// safety weight.
type TradeoffPoint struct {
	Lambda        float64 `json:"lambda"`
	TotalDistance float64 `json:"totalDistance"`
	TotalRisk     float64 `json:"totalRisk"`
	TotalCost     float64 `json:"totalCost"`
}

// Service computes risk-aware tours. It is stateless across calls except for
// the graph's cached read-only distance matrix, so concurrent requests need
// no synchronization.
type Service struct {
	graph  *geo.Graph
	model  *risk.Model
	solver *opt.Solver
	lambda float64
}

func NewService(g *geo.Graph, m *risk.Model, s *opt.Solver, lambda float64) *Service {
	return &Service{graph: g, model: m, solver: s, lambda: lambda}
}

func (s *Service) Graph() *geo.Graph { return s.graph }

// Lambda returns the configured default safety weight.
func (s *Service) Lambda() float64 { return s.lambda }

// ComputeRoute computes the minimum-cost tour under the configured safety
// weight. An empty hazard set yields the hazard-free optimum.
func (s *Service) ComputeRoute(ctx context.Context, hazards []risk.HazardPoint) (Result, opt.Stats, error) {
	return s.ComputeRouteWithLambda(ctx, hazards, s.lambda)
}

// ComputeRouteWithLambda is ComputeRoute with an explicit safety weight,
// used by the trade-off analysis sweep.
func (s *Service) ComputeRouteWithLambda(ctx context.Context, hazards []risk.HazardPoint, lambda float64) (Result, opt.Stats, error) {
	dist := s.graph.DistanceMatrix()
	riskM, contaminated := s.model.Matrix(hazards)
	cost := opt.BuildCostMatrix(dist, riskM, lambda)

	tour, st, err := s.solver.Solve(ctx, cost, riskM)
	if err != nil {
		return Result{}, opt.Stats{}, err
	}

	// Totals come from the source matrices, not the merged cost, and must
	// reproduce the optimizer's objective exactly.
	var totalDist, totalRisk float64
	for i := 0; i < len(tour.Sequence)-1; i++ {
		a, b := tour.Sequence[i], tour.Sequence[i+1]
		totalDist += dist[a][b]
		totalRisk += riskM[a][b]
	}
	totalCost := totalDist + lambda*totalRisk
	if math.Abs(totalCost-tour.Cost) > 1e-6*(1+math.Abs(totalCost)) {
		return Result{}, opt.Stats{}, fmt.Errorf("%w: objective mismatch (%v vs %v)", opt.ErrPrecondition, totalCost, tour.Cost)
	}

	return Result{
		Tour:              tour.Sequence,
		TotalDistance:     totalDist,
		TotalRisk:         totalRisk,
		TotalCost:         totalCost,
		Lambda:            lambda,
		Algorithm:         st.Algorithm,
		HazardActive:      len(hazards) > 0,
		ContaminatedEdges: contaminated,
	}, st, nil
}

// Sweep samples the distance/risk trade-off across steps evenly spaced safety
// weights in [0, maxLambda].
func (s *Service) Sweep(ctx context.Context, hazards []risk.HazardPoint, steps int, maxLambda float64) ([]TradeoffPoint, error) {
	if steps < 2 {
		steps = 2
	}
	out := make([]TradeoffPoint, 0, steps)
	for i := 0; i < steps; i++ {
		lambda := maxLambda * float64(i) / float64(steps-1)
		res, _, err := s.ComputeRouteWithLambda(ctx, hazards, lambda)
		if err != nil {
			return nil, fmt.Errorf("sweep at lambda=%v: %w", lambda, err)
		}
		out = append(out, TradeoffPoint{
			Lambda:        lambda,
			TotalDistance: res.TotalDistance,
			TotalRisk:     res.TotalRisk,
			TotalCost:     res.TotalCost,
		})
	}
	return out, nil
}
