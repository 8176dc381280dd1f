package api

import (
	"net/http"
	"time"

	"saferoute/internal/buildinfo"
)

// DebugJSON reports build and effective (non-secret) config info.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"addr":          s.Cfg.Addr,
			"locations":     len(s.Cfg.Locations),
			"lambda":        s.Cfg.Lambda,
			"hazardRadiusM": s.Cfg.HazardRadiusM,
			"blockRisk":     s.Cfg.BlockRisk,
			"exactMaxNodes": s.Cfg.ExactMaxNodes,
			"hazardTTL":     time.Duration(s.Cfg.HazardTTL).String(),
			"rateRPS":       s.Cfg.RateRPS,
			"rateBurst":     s.Cfg.RateBurst,
			"webhooks":      len(s.Cfg.Webhooks),
			"hasDatabase":   s.Cfg.DatabaseURL != "",
			"hasRedis":      s.Cfg.RedisURL != "",
			"hasAuthToken":  s.Cfg.AuthToken != "",
		},
	})
}
