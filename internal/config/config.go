// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"saferoute/internal/geo"
)

// Duration wraps time.Duration so YAML values like "10m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	dur, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", n.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// WebhookEndpoint is a notification target for hazard lifecycle events.
type WebhookEndpoint struct {
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

// Config is the process configuration. The location set is fixed at startup
// and read-only afterwards.
type Config struct {
	Addr string `yaml:"addr"`

	Locations []geo.Location `yaml:"locations"`
	// NodeRisk holds optional per-node baseline risk scores (0-100), one
	// per location.
	NodeRisk []float64 `yaml:"nodeRisk"`

	// Lambda converts risk units into distance-equivalent cost units.
	Lambda float64 `yaml:"lambda"`
	// HazardRadiusM is the proximity threshold: edges passing closer than
	// this to a hazard are contaminated.
	HazardRadiusM float64 `yaml:"hazardRadiusM"`
	// BlockRisk is the saturating risk for contaminated edges.
	BlockRisk float64 `yaml:"blockRisk"`

	ExactMaxNodes int      `yaml:"exactMaxNodes"`
	HazardTTL     Duration `yaml:"hazardTTL"`

	RateRPS   float64 `yaml:"rateRPS"`
	RateBurst int     `yaml:"rateBurst"`

	Webhooks []WebhookEndpoint `yaml:"webhooks"`

	// Env-only settings.
	DatabaseURL string `yaml:"-"`
	RedisURL    string `yaml:"-"`
	AuthToken   string `yaml:"-"`
}

// Default returns the demo configuration: the ten Dhanbad locations with
// their baseline risk scores, ISM as the depot.
func Default() Config {
	return Config{
		Addr: ":8080",
		Locations: []geo.Location{
			{ID: 0, Name: "ISM Dhanbad", Lat: 23.8142, Lng: 86.4412},
			{ID: 1, Name: "Dhanbad Station", Lat: 23.7957, Lng: 86.4266},
			{ID: 2, Name: "City Centre", Lat: 23.8050, Lng: 86.4300},
			{ID: 3, Name: "Hirapur", Lat: 23.8100, Lng: 86.4350},
			{ID: 4, Name: "Bank More", Lat: 23.7900, Lng: 86.4200},
			{ID: 5, Name: "Bartand", Lat: 23.8200, Lng: 86.4500},
			{ID: 6, Name: "Steel Gate", Lat: 23.8300, Lng: 86.4600},
			{ID: 7, Name: "Govindpur", Lat: 23.8500, Lng: 86.5000},
			{ID: 8, Name: "Jharia", Lat: 23.7500, Lng: 86.4000},
			{ID: 9, Name: "BIT Sindri", Lat: 23.6500, Lng: 86.4800},
		},
		NodeRisk:      []float64{0, 10, 50, 5, 20, 10, 15, 80, 90, 30},
		Lambda:        1.0,
		HazardRadiusM: 75,
		BlockRisk:     2_000_000,
		ExactMaxNodes: 13,
		HazardTTL:     0, // never expire
		RateRPS:       50,
		RateBurst:     100,
	}
}

// Load reads the YAML file at path (optional; empty path or a missing file
// falls back to defaults) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RateRPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateBurst = n
		}
	}
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	c.AuthToken = os.Getenv("AUTH_TOKEN")
}

// Validate enforces the startup invariants. In particular lambda*BlockRisk
// must dominate the longest possible cycle, otherwise contamination silently
// degrades from a hard constraint to a soft preference; that is a
// configuration bug and must fail here, not at request time.
func (c Config) Validate() error {
	if len(c.Locations) < 2 {
		return fmt.Errorf("config: need at least 2 locations, have %d", len(c.Locations))
	}
	for i, l := range c.Locations {
		if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
			return fmt.Errorf("config: location %d (%s) has out-of-range coordinates", i, l.Name)
		}
	}
	if c.NodeRisk != nil && len(c.NodeRisk) != len(c.Locations) {
		return fmt.Errorf("config: nodeRisk has %d entries for %d locations", len(c.NodeRisk), len(c.Locations))
	}
	for i, r := range c.NodeRisk {
		if r < 0 || r > 100 {
			return fmt.Errorf("config: nodeRisk[%d] = %v outside 0-100", i, r)
		}
	}
	if c.Lambda < 0 || math.IsNaN(c.Lambda) || math.IsInf(c.Lambda, 0) {
		return fmt.Errorf("config: lambda must be a finite value >= 0, got %v", c.Lambda)
	}
	if c.HazardRadiusM <= 0 {
		return fmt.Errorf("config: hazardRadiusM must be > 0, got %v", c.HazardRadiusM)
	}
	if c.BlockRisk <= 1_000_000 {
		return fmt.Errorf("config: blockRisk must exceed 1,000,000, got %v", c.BlockRisk)
	}
	maxCycle := geo.NewGraph(c.Locations).MaxCycleDistance()
	if c.Lambda*c.BlockRisk <= maxCycle {
		return fmt.Errorf("config: lambda*blockRisk (%v) does not dominate the maximum cycle distance (%v m); contaminated edges would not be avoided", c.Lambda*c.BlockRisk, maxCycle)
	}
	// The exact solver's table is ~n*2^n entries; past 20 nodes it must
	// not be reachable by configuration.
	if c.ExactMaxNodes < 2 || c.ExactMaxNodes > 20 {
		return fmt.Errorf("config: exactMaxNodes must be in [2,20], got %d", c.ExactMaxNodes)
	}
	if c.HazardTTL < 0 {
		return fmt.Errorf("config: hazardTTL must be >= 0, got %v", c.HazardTTL)
	}
	for i, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("config: webhook %d has no url", i)
		}
	}
	return nil
}
