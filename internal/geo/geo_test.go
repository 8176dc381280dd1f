package geo

import (
	"math"
	"testing"
)

func testLocations() []Location {
	return []Location{
		{ID: 0, Name: "Depot", Lat: 23.8142, Lng: 86.4412},
		{ID: 1, Name: "Station", Lat: 23.7957, Lng: 86.4266},
		{ID: 2, Name: "City Centre", Lat: 23.8050, Lng: 86.4300},
		{ID: 3, Name: "Hirapur", Lat: 23.8100, Lng: 86.4350},
		{ID: 4, Name: "Bank More", Lat: 23.7900, Lng: 86.4200},
	}
}

func TestDistanceMatrixSymmetric(t *testing.T) {
	g := NewGraph(testLocations())
	n := g.Len()
	for i := 0; i < n; i++ {
		if g.Distance(i, i) != 0 {
			t.Fatalf("Distance(%d,%d) = %v, want 0", i, i, g.Distance(i, i))
		}
		for j := 0; j < n; j++ {
			if g.Distance(i, j) != g.Distance(j, i) {
				t.Fatalf("asymmetric distance at (%d,%d)", i, j)
			}
		}
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Depot (ISM) to Station is roughly 2.5 km on the ground.
	d := Haversine(23.8142, 86.4412, 23.7957, 86.4266)
	if d < 2000 || d > 3000 {
		t.Fatalf("Haversine = %v m, want ~2500 m", d)
	}
	if Haversine(10, 20, 10, 20) != 0 {
		t.Fatalf("zero-length distance should be 0")
	}
}

func TestDistanceMatrixCached(t *testing.T) {
	g := NewGraph(testLocations())
	m1 := g.DistanceMatrix()
	m2 := g.DistanceMatrix()
	if &m1[0] != &m2[0] {
		t.Fatalf("matrix should be computed once and shared")
	}
}

func TestSegmentDistanceMidpoint(t *testing.T) {
	a, b := testLocations()[1], testLocations()[2]
	mLat, mLng := (a.Lat+b.Lat)/2, (a.Lng+b.Lng)/2
	d := SegmentDistanceMeters(mLat, mLng, a.Lat, a.Lng, b.Lat, b.Lng)
	if d > 1.0 {
		t.Fatalf("midpoint should be on the segment, got %v m", d)
	}
}

func TestSegmentDistanceClampsToEndpoints(t *testing.T) {
	// A point beyond b should measure against b, not the infinite line.
	aLat, aLng := 23.80, 86.42
	bLat, bLng := 23.80, 86.43
	pLat, pLng := 23.80, 86.45
	d := SegmentDistanceMeters(pLat, pLng, aLat, aLng, bLat, bLng)
	want := Haversine(pLat, pLng, bLat, bLng)
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("clamped distance = %v, want ~%v", d, want)
	}
}

func TestSegmentDistanceDegenerateSegment(t *testing.T) {
	d := SegmentDistanceMeters(23.81, 86.44, 23.80, 86.43, 23.80, 86.43)
	want := Haversine(23.81, 86.44, 23.80, 86.43)
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("degenerate segment distance = %v, want ~%v", d, want)
	}
}

func TestMaxCycleDistanceBound(t *testing.T) {
	g := NewGraph(testLocations())
	maxEdge := 0.0
	for i := 0; i < g.Len(); i++ {
		for j := 0; j < g.Len(); j++ {
			if g.Distance(i, j) > maxEdge {
				maxEdge = g.Distance(i, j)
			}
		}
	}
	if got, want := g.MaxCycleDistance(), float64(g.Len())*maxEdge; got != want {
		t.Fatalf("MaxCycleDistance = %v, want %v", got, want)
	}
}
