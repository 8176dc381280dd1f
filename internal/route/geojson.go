package route

import (
	"math"

	"saferoute/internal/geo"
)

// GeoJSON response shapes. The UI collaborator renders the LineString and
// uses the stroke hint only to pick a color.

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Metrics  Metrics   `json:"metrics"`
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

type Geometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type Metrics struct {
	SafeDistance int     `json:"safe_distance"`
	TotalRisk    float64 `json:"total_risk"`
	NodesVisited int     `json:"nodes_visited"`
}

// ToGeoJSON serializes a result as a FeatureCollection whose LineString
// follows the winning tour in visiting order. GeoJSON positions are
// [lng, lat].
func ToGeoJSON(g *geo.Graph, res Result) FeatureCollection {
	coords := make([][2]float64, 0, len(res.Tour))
	for _, idx := range res.Tour {
		loc := g.Location(idx)
		coords = append(coords, [2]float64{loc.Lng, loc.Lat})
	}
	stroke := "blue"
	if res.HazardActive {
		stroke = "red"
	}
	return FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{{
			Type:       "Feature",
			Properties: map[string]any{"stroke": stroke},
			Geometry:   Geometry{Type: "LineString", Coordinates: coords},
		}},
		Metrics: Metrics{
			SafeDistance: int(math.Round(res.TotalDistance)),
			TotalRisk:    res.TotalRisk,
			NodesVisited: g.Len(),
		},
	}
}
