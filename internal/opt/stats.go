package opt

import (
	"sync"
	"time"
)

const (
	AlgorithmExact     = "held-karp"
	AlgorithmHeuristic = "nn-2opt"
)

// Stats describes a single solver run.
type Stats struct {
	Algorithm string        `json:"algorithm"`
	Nodes     int           `json:"nodes"`
	Sweeps    int           `json:"sweeps,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

var (
	mu    sync.Mutex
	runs  = map[string]int{}
	lasts = map[string]Stats{}
)

// RecordStats keeps the most recent run per algorithm plus run counts, for
// the admin stats endpoint.
func RecordStats(st Stats) {
	mu.Lock()
	runs[st.Algorithm]++
	lasts[st.Algorithm] = st
	mu.Unlock()
}

// Snapshot returns run counts and the last recorded stats per algorithm.
func Snapshot() (map[string]int, map[string]Stats) {
	mu.Lock()
	defer mu.Unlock()
	outRuns := make(map[string]int, len(runs))
	for k, v := range runs {
		outRuns[k] = v
	}
	outLast := make(map[string]Stats, len(lasts))
	for k, v := range lasts {
		outLast[k] = v
	}
	return outRuns, outLast
}
