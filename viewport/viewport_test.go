package viewport

import (
	"math"
	"testing"
)

func TestWrapLongitude(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{540, -180},
	}
	for _, tc := range tests {
		if got := WrapLongitude(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("WrapLongitude(%f): expected %f, got %f", tc.in, tc.want, got)
		}
	}
}

func TestInBoundsAcrossAntimeridian(t *testing.T) {
	// Pacific view: 170E to 190E (-170)
	b := [4]float64{170, -10, 190, 10}
	if !InBounds(-175, 0, b) {
		t.Error("expected -175 inside bounds straddling the antimeridian")
	}
	if InBounds(160, 0, b) {
		t.Error("expected 160 outside bounds")
	}
	if InBounds(175, 20, b) {
		t.Error("expected latitude 20 outside bounds")
	}
}

func TestInRasterBoundsWithoutWrap(t *testing.T) {
	b := [4]float64{-180, -90, 180, 90}

	if InRasterBounds(184.5, 0, b, false) {
		t.Error("expected 184.5 outside without wrap")
	}
	if !InRasterBounds(184.5, 0, b, true) {
		t.Error("expected 184.5 inside with wrap")
	}
	if !InRasterBounds(179.5, 0, b, false) {
		t.Error("expected 179.5 inside")
	}
}

func TestWrapBounds(t *testing.T) {
	whole := WrapBounds([4]float64{-400, -100, 400, 100})
	if whole != ([4]float64{-180, -90, 180, 90}) {
		t.Errorf("expected whole world, got %v", whole)
	}
	b := WrapBounds([4]float64{190, 0, 200, 10})
	if math.Abs(b[0]+170) > 1e-9 || math.Abs(b[2]+160) > 1e-9 {
		t.Errorf("expected [-170, -160], got %v", b)
	}
}

func TestDestinationPointRoundtrip(t *testing.T) {
	from := [2]float64{10, 45}
	dist := 500_000.0
	to := DestinationPoint(from, dist, 60)

	if got := DistanceTo(from, to); math.Abs(got-dist) > 1 {
		t.Errorf("expected distance %f, got %f", dist, got)
	}
}

func TestDisplaceMatchesFlatOffsetForSmallSteps(t *testing.T) {
	lon, lat := 20.0, 40.0
	east, north := 0.01, 0.02

	gl, gt := Displace(lon, lat, east, north)
	fl := lon + east/math.Cos(lat*math.Pi/180)
	ft := lat + north

	if math.Abs(gl-fl) > 1e-5 || math.Abs(gt-ft) > 1e-5 {
		t.Errorf("expected (%f, %f), got (%f, %f)", fl, ft, gl, gt)
	}
}

func TestDisplaceNearPoleStaysFinite(t *testing.T) {
	lon, lat := Displace(0, 89.999, 1, 0)
	if math.IsNaN(lon) || math.IsNaN(lat) || lat > 90 {
		t.Errorf("expected finite position near the pole, got (%f, %f)", lon, lat)
	}
}

func TestCartesianRoundtrip(t *testing.T) {
	for _, p := range [][2]float64{{0, 0}, {45, 30}, {-120, -60}, {179, 1}} {
		lon, lat := FromCartesian(ToCartesian(p[0], p[1]))
		if math.Abs(lon-p[0]) > 1e-9 || math.Abs(lat-p[1]) > 1e-9 {
			t.Errorf("roundtrip %v: got (%f, %f)", p, lon, lat)
		}
	}
}

func TestZoomChangeFactor(t *testing.T) {
	if got := ZoomChangeFactor(3, 2, 4); got != 16 {
		t.Errorf("expected 16 when zooming out one level, got %f", got)
	}
	if got := ZoomChangeFactor(2, 3, 1); got != 0.5 {
		t.Errorf("expected 0.5 when zooming in one level with k=1, got %f", got)
	}
	if got := ZoomChangeFactor(math.NaN(), 2, 4); got != 1 {
		t.Errorf("expected neutral factor for unset previous zoom, got %f", got)
	}
	if got := ZoomChangeFactor(5000, 0, 4); got != 1 {
		t.Errorf("expected neutral factor for overflow, got %f", got)
	}
}

func TestSpeedScale(t *testing.T) {
	if got := SpeedScale(128, 0); got != 1 {
		t.Errorf("expected 128/2^7 = 1, got %f", got)
	}
	if got := SpeedScale(1, math.Inf(-1)); got != 0 {
		t.Errorf("expected non-finite scale to collapse to 0, got %f", got)
	}
}

func TestViewportContainsGlobe(t *testing.T) {
	v := Viewport{Projection: Globe, GlobeCenter: [2]float64{0, 0}, GlobeRadius: 1_000_000}
	if !v.Contains(1, 1) {
		t.Error("expected nearby point inside globe view")
	}
	if v.Contains(90, 0) {
		t.Error("expected distant point outside globe view")
	}
}

func TestPointToPosition(t *testing.T) {
	planar := Viewport{Bounds: [4]float64{-10, -5, 10, 5}}
	lon, lat := planar.PointToPosition(0.5, 0.5)
	if lon != 0 || lat != 0 {
		t.Errorf("expected center, got (%f, %f)", lon, lat)
	}

	globe := Viewport{Projection: Globe, GlobeCenter: [2]float64{30, 10}, GlobeRadius: 2_000_000}
	for _, p := range [][2]float64{{0, 0}, {0.99, 0.25}, {0.5, 0.75}} {
		lon, lat := globe.PointToPosition(p[0], p[1])
		if !globe.Contains(lon, lat) {
			t.Errorf("point %v mapped outside globe view: (%f, %f)", p, lon, lat)
		}
	}
}
