package api

import (
	"fmt"
	"math"

	"saferoute/internal/risk"
)

func validateHazard(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("lat/lng must be finite")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("lat %v out of range [-90,90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("lng %v out of range [-180,180]", lng)
	}
	return nil
}

func validateHazards(hs []risk.HazardPoint) error {
	for i, h := range hs {
		if err := validateHazard(h.Lat, h.Lng); err != nil {
			return fmt.Errorf("hazard %d: %w", i, err)
		}
	}
	return nil
}

func validateLambda(lambda float64) error {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return fmt.Errorf("lambda must be finite")
	}
	if lambda < 0 {
		return fmt.Errorf("lambda must be >= 0")
	}
	return nil
}

func validateSweep(steps int, maxLambda float64) error {
	if steps < 2 || steps > 100 {
		return fmt.Errorf("steps must be in [2,100]")
	}
	if err := validateLambda(maxLambda); err != nil {
		return fmt.Errorf("maxLambda: %w", err)
	}
	if maxLambda == 0 {
		return fmt.Errorf("maxLambda must be > 0")
	}
	return nil
}
