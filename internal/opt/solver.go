// Package opt finds minimum-cost depot tours over a scalar cost matrix.
package opt

import (
	"context"
	"time"
)

// Tour is a Hamiltonian cycle through the depot: Sequence has N+1 entries,
// starts and ends at index 0, and visits every other index exactly once.
type Tour struct {
	Sequence []int
	Cost     float64
	Risk     float64
}

// DefaultExactMaxNodes is the practicality bound for the exact DP solver.
// Above it the subset table (O(N*2^N)) stops being worth the latency and the
// solver switches to the local-search heuristic.
const DefaultExactMaxNodes = 13

// Solver selects between the exact Held-Karp DP and the nearest-neighbor +
// 2-opt heuristic based on instance size. It holds no mutable state and is
// safe for concurrent use.
type Solver struct {
	ExactMaxNodes int
}

func NewSolver(exactMaxNodes int) *Solver {
	if exactMaxNodes <= 0 {
		exactMaxNodes = DefaultExactMaxNodes
	}
	return &Solver{ExactMaxNodes: exactMaxNodes}
}

// Solve returns the minimum-cost tour over the complete graph described by
// cost, starting and ending at index 0. riskM is carried alongside so that
// equal-cost tours prefer lower total risk; remaining ties go to the
// lexicographically smallest visiting order. A Hamiltonian cycle always
// exists, so the only failure modes are a cancelled context or a violated
// matrix precondition.
func (s *Solver) Solve(ctx context.Context, cost, riskM [][]float64) (Tour, Stats, error) {
	start := time.Now()
	if err := checkFinite(cost); err != nil {
		return Tour{}, Stats{}, err
	}
	n := len(cost)
	if n < 2 {
		return Tour{Sequence: []int{0, 0}}, Stats{Algorithm: AlgorithmExact, Nodes: n, Elapsed: time.Since(start)}, nil
	}

	var (
		tour Tour
		st   Stats
		err  error
	)
	if n <= s.ExactMaxNodes {
		tour, err = solveExact(ctx, cost, riskM)
		st = Stats{Algorithm: AlgorithmExact, Nodes: n}
	} else {
		var sweeps int
		tour, sweeps, err = solveHeuristic(ctx, cost, riskM)
		st = Stats{Algorithm: AlgorithmHeuristic, Nodes: n, Sweeps: sweeps}
	}
	if err != nil {
		return Tour{}, Stats{}, err
	}
	st.Elapsed = time.Since(start)
	return tour, st, nil
}

// solveExact implements the Held-Karp subset recurrence. The DP value for
// (S, j) is the best suffix starting at j, visiting exactly the nodes of S,
// and ending at the depot. Values are compared as (cost, risk) pairs;
// lexicographic order on pairs is preserved under addition, so the pair DP
// stays exact. Reconstructing forward from the depot and keeping the
// smallest node index on full ties yields the lexicographically smallest
// optimal visiting order.
func solveExact(ctx context.Context, cost, riskM [][]float64) (Tour, error) {
	n := len(cost)
	m := n - 1 // inner nodes 1..n-1, node j maps to bit j-1
	size := 1 << m

	dpCost := make([]float64, size*m)
	dpRisk := make([]float64, size*m)
	next := make([]int16, size*m)

	at := func(mask, j int) int { return mask*m + (j - 1) }

	for mask := 1; mask < size; mask++ {
		if mask%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Tour{}, err
			}
		}
		for j := 1; j < n; j++ {
			bit := 1 << (j - 1)
			if mask&bit == 0 {
				continue
			}
			rest := mask ^ bit
			idx := at(mask, j)
			if rest == 0 {
				dpCost[idx] = cost[j][0]
				dpRisk[idx] = riskM[j][0]
				next[idx] = -1
				continue
			}
			bestC, bestR := 0.0, 0.0
			bestK := -1
			for k := 1; k < n; k++ {
				if rest&(1<<(k-1)) == 0 {
					continue
				}
				c := cost[j][k] + dpCost[at(rest, k)]
				r := riskM[j][k] + dpRisk[at(rest, k)]
				if bestK == -1 || c < bestC || (c == bestC && r < bestR) {
					bestC, bestR, bestK = c, r, k
				}
			}
			dpCost[idx] = bestC
			dpRisk[idx] = bestR
			next[idx] = int16(bestK)
		}
	}

	full := size - 1
	bestC, bestR := 0.0, 0.0
	bestJ := -1
	for j := 1; j < n; j++ {
		c := cost[0][j] + dpCost[at(full, j)]
		r := riskM[0][j] + dpRisk[at(full, j)]
		if bestJ == -1 || c < bestC || (c == bestC && r < bestR) {
			bestC, bestR, bestJ = c, r, j
		}
	}

	seq := make([]int, 0, n+1)
	seq = append(seq, 0)
	mask, cur := full, bestJ
	for cur > 0 {
		seq = append(seq, cur)
		nxt := int(next[at(mask, cur)])
		mask ^= 1 << (cur - 1)
		cur = nxt
	}
	seq = append(seq, 0)
	return Tour{Sequence: seq, Cost: bestC, Risk: bestR}, nil
}

// tourTotals sums matrix entries along the tour's edges.
func tourTotals(cost, riskM [][]float64, seq []int) (float64, float64) {
	var c, r float64
	for i := 0; i < len(seq)-1; i++ {
		c += cost[seq[i]][seq[i+1]]
		r += riskM[seq[i]][seq[i+1]]
	}
	return c, r
}
