package opt

import "context"

// solveHeuristic builds a nearest-neighbor tour and improves it with 2-opt
// until no exchange helps. Used above the exact solver's practicality bound,
// where determinism and quality matter more than optimality. It contains no
// randomness: construction scans candidates in ascending index order and
// improvement only accepts strictly better tours, so repeated calls agree.
func solveHeuristic(ctx context.Context, cost, riskM [][]float64) (Tour, int, error) {
	seq := nearestNeighborTour(cost)
	sweeps := 0
	n := len(cost)
	improved := true
	for improved {
		if err := ctx.Err(); err != nil {
			return Tour{}, 0, err
		}
		improved = false
		sweeps++
		// Reversing seq[i..k] keeps the depot fixed at both ends.
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				delta := twoOptDelta(cost, seq, i, k)
				if delta < -1e-9 {
					reverse(seq, i, k)
					improved = true
				}
			}
		}
	}
	c, r := tourTotals(cost, riskM, seq)
	return Tour{Sequence: seq, Cost: c, Risk: r}, sweeps, nil
}

// nearestNeighborTour greedily appends the cheapest unvisited node, breaking
// ties by smaller index, and closes the cycle back at the depot.
func nearestNeighborTour(cost [][]float64) []int {
	n := len(cost)
	visited := make([]bool, n)
	seq := make([]int, 0, n+1)
	seq = append(seq, 0)
	visited[0] = true
	cur := 0
	for len(seq) < n {
		best := -1
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if best == -1 || cost[cur][j] < cost[cur][best] {
				best = j
			}
		}
		seq = append(seq, best)
		visited[best] = true
		cur = best
	}
	return append(seq, 0)
}

// twoOptDelta is the cost change from reversing seq[i..k]. The cost matrix is
// symmetric here (distance and risk both are), so only the two boundary edges
// change.
func twoOptDelta(cost [][]float64, seq []int, i, k int) float64 {
	a, b := seq[i-1], seq[i]
	c, d := seq[k], seq[k+1]
	return cost[a][c] + cost[b][d] - cost[a][b] - cost[c][d]
}

func reverse(seq []int, i, k int) {
	for i < k {
		seq[i], seq[k] = seq[k], seq[i]
		i++
		k--
	}
}
