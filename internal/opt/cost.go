package opt

import (
	"errors"
	"fmt"
	"math"
)

// ErrPrecondition marks internal inconsistencies (e.g. a non-finite cost
// entry). These indicate a bug in matrix construction, are fatal for the
// request and must not be retried.
var ErrPrecondition = errors.New("optimizer precondition violated")

// BuildCostMatrix merges distance and risk into a single scalar cost:
// cost[i][j] = dist[i][j] + lambda*risk[i][j]. Diagonal entries are +Inf to
// forbid self-loops.
func BuildCostMatrix(dist, riskM [][]float64, lambda float64) [][]float64 {
	n := len(dist)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				out[i][j] = math.Inf(1)
				continue
			}
			out[i][j] = dist[i][j] + lambda*riskM[i][j]
		}
	}
	return out
}

// checkFinite rejects matrices with NaN or Inf off-diagonal entries.
func checkFinite(cost [][]float64) error {
	for i := range cost {
		if len(cost[i]) != len(cost) {
			return fmt.Errorf("%w: cost matrix is not square at row %d", ErrPrecondition, i)
		}
		for j := range cost[i] {
			if i == j {
				continue
			}
			v := cost[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite cost entry at (%d,%d)", ErrPrecondition, i, j)
			}
		}
	}
	return nil
}
