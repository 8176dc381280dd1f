package opt

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func symmetricMatrix(n int, rng *rand.Rand) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 100 + rng.Float64()*10000
			m[i][j] = v
			m[j][i] = v
		}
	}
	return m
}

func zeroMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// bruteForceBest enumerates every Hamiltonian cycle through the depot and
// returns the minimum total cost.
func bruteForceBest(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, 0, n-1)
	used := make([]bool, n)
	best := math.Inf(1)
	var walk func()
	walk = func() {
		if len(perm) == n-1 {
			total := cost[0][perm[0]]
			for i := 0; i < len(perm)-1; i++ {
				total += cost[perm[i]][perm[i+1]]
			}
			total += cost[perm[len(perm)-1]][0]
			if total < best {
				best = total
			}
			return
		}
		for j := 1; j < n; j++ {
			if used[j] {
				continue
			}
			used[j] = true
			perm = append(perm, j)
			walk()
			perm = perm[:len(perm)-1]
			used[j] = false
		}
	}
	walk()
	return best
}

func assertValidTour(t *testing.T, seq []int, n int) {
	t.Helper()
	if len(seq) != n+1 {
		t.Fatalf("tour length = %d, want %d", len(seq), n+1)
	}
	if seq[0] != 0 || seq[n] != 0 {
		t.Fatalf("tour must start and end at depot: %v", seq)
	}
	seen := make([]bool, n)
	for _, v := range seq[1:n] {
		if v <= 0 || v >= n || seen[v] {
			t.Fatalf("invalid visiting order: %v", seq)
		}
		seen[v] = true
	}
}

func TestExactMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		n := 4 + rng.Intn(4) // 4..7
		cost := symmetricMatrix(n, rng)
		tour, st, err := NewSolver(0).Solve(context.Background(), cost, zeroMatrix(n))
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if st.Algorithm != AlgorithmExact {
			t.Fatalf("algorithm = %s, want exact", st.Algorithm)
		}
		assertValidTour(t, tour.Sequence, n)
		want := bruteForceBest(cost)
		if math.Abs(tour.Cost-want) > 1e-6 {
			t.Fatalf("trial %d: cost = %v, brute force = %v", trial, tour.Cost, want)
		}
	}
}

func TestExactDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cost := symmetricMatrix(8, rng)
	riskM := zeroMatrix(8)
	first, _, err := NewSolver(0).Solve(context.Background(), cost, riskM)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := NewSolver(0).Solve(context.Background(), cost, riskM)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if again.Cost != first.Cost || again.Risk != first.Risk {
			t.Fatalf("non-deterministic totals")
		}
		for k := range first.Sequence {
			if again.Sequence[k] != first.Sequence[k] {
				t.Fatalf("non-deterministic order: %v vs %v", again.Sequence, first.Sequence)
			}
		}
	}
}

func TestTieBreakPrefersLowerRisk(t *testing.T) {
	// All edges cost the same, so every cycle ties on cost. Edge (1,2)
	// carries risk, so optimal tours avoid it; with 4 nodes that forces 1
	// and 2 apart.
	n := 4
	cost := make([][]float64, n)
	riskM := zeroMatrix(n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i != j {
				cost[i][j] = 1000
			}
		}
	}
	riskM[1][2] = 50
	riskM[2][1] = 50
	tour, _, err := NewSolver(0).Solve(context.Background(), cost, riskM)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if tour.Risk != 0 {
		t.Fatalf("tour risk = %v, want 0 (sequence %v)", tour.Risk, tour.Sequence)
	}
}

func TestTieBreakLexicographic(t *testing.T) {
	// Uniform cost and risk: every visiting order ties completely, so the
	// solver must return 0,1,2,...,0.
	n := 6
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i != j {
				cost[i][j] = 500
			}
		}
	}
	tour, _, err := NewSolver(0).Solve(context.Background(), cost, zeroMatrix(n))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i := 0; i < n; i++ {
		if tour.Sequence[i] != i {
			t.Fatalf("want identity order on full tie, got %v", tour.Sequence)
		}
	}
}

func TestHeuristicAboveCeiling(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 20
	cost := symmetricMatrix(n, rng)
	tour, st, err := NewSolver(10).Solve(context.Background(), cost, zeroMatrix(n))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if st.Algorithm != AlgorithmHeuristic {
		t.Fatalf("algorithm = %s, want heuristic", st.Algorithm)
	}
	assertValidTour(t, tour.Sequence, n)

	// 2-opt must never end up worse than its nearest-neighbor seed.
	seed := nearestNeighborTour(cost)
	seedCost, _ := tourTotals(cost, zeroMatrix(n), seed)
	if tour.Cost > seedCost+1e-6 {
		t.Fatalf("2-opt result %v worse than seed %v", tour.Cost, seedCost)
	}
}

func TestHeuristicMatchesExactOnSmallInstance(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	cost := symmetricMatrix(6, rng)
	riskM := zeroMatrix(6)
	heur, _, err := NewSolver(2).Solve(context.Background(), cost, riskM)
	if err != nil {
		t.Fatalf("heuristic Solve: %v", err)
	}
	want := bruteForceBest(cost)
	// Not guaranteed optimal in general, but must stay within a sane bound.
	if heur.Cost < want-1e-6 {
		t.Fatalf("heuristic beat the optimum: %v < %v", heur.Cost, want)
	}
	if heur.Cost > want*1.3 {
		t.Fatalf("heuristic too far from optimum: %v vs %v", heur.Cost, want)
	}
}

func TestSolveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rng := rand.New(rand.NewSource(5))
	_, _, err := NewSolver(0).Solve(ctx, symmetricMatrix(13, rng), zeroMatrix(13))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBuildCostMatrix(t *testing.T) {
	dist := [][]float64{{0, 10}, {10, 0}}
	riskM := [][]float64{{0, 5}, {5, 0}}
	cost := BuildCostMatrix(dist, riskM, 2)
	if cost[0][1] != 20 {
		t.Fatalf("cost[0][1] = %v, want 20", cost[0][1])
	}
	if !math.IsInf(cost[0][0], 1) || !math.IsInf(cost[1][1], 1) {
		t.Fatalf("diagonal must be +Inf")
	}
}

func TestCheckFiniteRejectsBadEntries(t *testing.T) {
	cost := BuildCostMatrix([][]float64{{0, 1}, {1, 0}}, [][]float64{{0, 0}, {0, 0}}, 1)
	cost[0][1] = math.NaN()
	_, _, err := NewSolver(0).Solve(context.Background(), cost, zeroMatrix(2))
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("err = %v, want ErrPrecondition", err)
	}
}

func TestSingleLocationDegenerateTour(t *testing.T) {
	tour, _, err := NewSolver(0).Solve(context.Background(), BuildCostMatrix([][]float64{{0}}, [][]float64{{0}}, 1), [][]float64{{0}})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(tour.Sequence) != 2 || tour.Sequence[0] != 0 || tour.Sequence[1] != 0 {
		t.Fatalf("degenerate tour = %v", tour.Sequence)
	}
}
