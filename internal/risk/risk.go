// Package risk maps reported hazard points onto per-edge risk penalties.
package risk

import (
	"saferoute/internal/geo"
)

// HazardPoint is a reported hazard location. It has no identity beyond its
// coordinates and lives only for the duration of a request.
type HazardPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Model scores every edge of the graph against a set of hazard points.
//
// Baseline risk comes from optional per-node scores (0-100): an edge inherits
// the larger of its endpoints' scores so the matrix stays symmetric. An edge
// passing within ThresholdM meters of any hazard is contaminated and its risk
// saturates at BlockRisk, overriding the baseline. Contamination never
// stacks; a second hazard on the same edge changes nothing, which keeps the
// hard-constraint encoding exact and overflow-free.
type Model struct {
	graph      *geo.Graph
	nodeScores []float64
	ThresholdM float64
	BlockRisk  float64
}

// NewModel builds a hazard model over g. nodeScores may be nil (baseline 0)
// or must have one entry per location.
func NewModel(g *geo.Graph, nodeScores []float64, thresholdM, blockRisk float64) *Model {
	return &Model{graph: g, nodeScores: nodeScores, ThresholdM: thresholdM, BlockRisk: blockRisk}
}

func (m *Model) baseline(i, j int) float64 {
	if m.nodeScores == nil {
		return 0
	}
	ri, rj := m.nodeScores[i], m.nodeScores[j]
	if rj > ri {
		return rj
	}
	return ri
}

// Matrix returns the symmetric risk matrix for the given hazard set and the
// number of contaminated edges. The matrix is freshly allocated per call.
func (m *Model) Matrix(hazards []HazardPoint) ([][]float64, int) {
	n := m.graph.Len()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	contaminated := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.baseline(i, j)
			a, b := m.graph.Location(i), m.graph.Location(j)
			for _, h := range hazards {
				d := geo.SegmentDistanceMeters(h.Lat, h.Lng, a.Lat, a.Lng, b.Lat, b.Lng)
				if d < m.ThresholdM {
					r = m.BlockRisk
					contaminated++
					break
				}
			}
			out[i][j] = r
			out[j][i] = r
		}
	}
	return out, contaminated
}
