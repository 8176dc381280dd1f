// Package geo holds the fixed location set and great-circle geometry helpers.
package geo

import "math"

const earthRadiusM = 6371000.0

// metersPerDegree is the arc length of one degree of latitude.
const metersPerDegree = earthRadiusM * math.Pi / 180

// Location is one fixed stop on the service map. Index 0 is always the depot.
type Location struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Graph holds the location set and the cached all-pairs distance matrix.
// Locations never change at runtime, so the matrix is computed once and is
// safe for concurrent reads without locking.
type Graph struct {
	locs []Location
	dist [][]float64
}

func NewGraph(locs []Location) *Graph {
	n := len(locs)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Haversine(locs[i].Lat, locs[i].Lng, locs[j].Lat, locs[j].Lng)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return &Graph{locs: append([]Location(nil), locs...), dist: dist}
}

func (g *Graph) Len() int { return len(g.locs) }

func (g *Graph) Location(i int) Location { return g.locs[i] }

// Locations returns a copy of the fixed location set.
func (g *Graph) Locations() []Location { return append([]Location(nil), g.locs...) }

// Distance returns the great-circle distance in meters between locations i and j.
func (g *Graph) Distance(i, j int) float64 { return g.dist[i][j] }

// DistanceMatrix returns the cached matrix. Callers must treat it as read-only;
// it is shared across concurrent requests.
func (g *Graph) DistanceMatrix() [][]float64 { return g.dist }

// MaxCycleDistance is an upper bound on the total distance of any cycle over
// the graph: N times the longest edge. Used to size the blocking penalty.
func (g *Graph) MaxCycleDistance() float64 {
	maxEdge := 0.0
	for i := range g.dist {
		for j := range g.dist[i] {
			if g.dist[i][j] > maxEdge {
				maxEdge = g.dist[i][j]
			}
		}
	}
	return float64(len(g.locs)) * maxEdge
}

// Haversine computes the great-circle distance in meters between two
// lat/lng points given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// SegmentDistanceMeters returns the distance in meters from point p to the
// segment a-b. It projects onto a local flat plane centered on the segment
// (equirectangular approximation), which is accurate at city scale, and
// clamps the projection parameter to [0,1].
func SegmentDistanceMeters(pLat, pLng, aLat, aLng, bLat, bLng float64) float64 {
	cosRef := math.Cos((aLat + bLat) / 2 * math.Pi / 180)
	ax, ay := aLng*metersPerDegree*cosRef, aLat*metersPerDegree
	bx, by := bLng*metersPerDegree*cosRef, bLat*metersPerDegree
	px, py := pLng*metersPerDegree*cosRef, pLat*metersPerDegree

	dx, dy := bx-ax, by-ay
	segLenSq := dx*dx + dy*dy
	t := 0.0
	if segLenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / segLenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}
