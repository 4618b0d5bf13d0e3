package align

import (
	"math"
	"testing"
)

const epsilon = 1e-9

// almostEqual checks if two floats are equal within epsilon tolerance
func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// vectorsEqual checks if two vectors are equal within the given tolerance
func vectorsEqual(a, b Cartesian3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestCartesian3_Ops(t *testing.T) {
	a := Cartesian3{X: 1, Y: 2, Z: 3}
	b := Cartesian3{X: 4, Y: 5, Z: 6}

	if got := a.Add(b); !vectorsEqual(got, Cartesian3{X: 5, Y: 7, Z: 9}, epsilon) {
		t.Errorf("Add = %v", got)
	}
	if got := b.Sub(a); !vectorsEqual(got, Cartesian3{X: 3, Y: 3, Z: 3}, epsilon) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Scale(2); !vectorsEqual(got, Cartesian3{X: 2, Y: 4, Z: 6}, epsilon) {
		t.Errorf("Scale = %v", got)
	}
	if got := a.Dot(b); !almostEqual(got, 32) {
		t.Errorf("Dot = %v, want 32", got)
	}
}

func TestCartesian3_Cross(t *testing.T) {
	x := Cartesian3{X: 1}
	y := Cartesian3{Y: 1}

	got := x.Cross(y)
	if !vectorsEqual(got, Cartesian3{Z: 1}, epsilon) {
		t.Errorf("x cross y = %v, want z", got)
	}

	// Anticommutative
	got = y.Cross(x)
	if !vectorsEqual(got, Cartesian3{Z: -1}, epsilon) {
		t.Errorf("y cross x = %v, want -z", got)
	}
}

func TestCartesian3_Normalize(t *testing.T) {
	v := Cartesian3{X: 3, Y: 4}
	n := v.Normalize()
	if !almostEqual(n.Norm(), 1.0) {
		t.Errorf("normalized norm = %v, want 1", n.Norm())
	}
	if !vectorsEqual(n, Cartesian3{X: 0.6, Y: 0.8}, epsilon) {
		t.Errorf("Normalize = %v", n)
	}
}

func TestCartesian3_IsFinite(t *testing.T) {
	if !(Cartesian3{X: 1, Y: 2, Z: 3}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if (Cartesian3{X: math.NaN()}).IsFinite() {
		t.Error("NaN vector reported finite")
	}
	if (Cartesian3{Z: math.Inf(1)}).IsFinite() {
		t.Error("Inf vector reported finite")
	}
}

func TestFromGeodetic_KnownPositions(t *testing.T) {
	tests := []struct {
		name string
		geo  Geodetic
		want Cartesian3
	}{
		{
			name: "equator prime meridian",
			geo:  Geodetic{Lon: 0, Lat: 0, Height: 0},
			want: Cartesian3{X: 6378137.0},
		},
		{
			name: "equator 90E",
			geo:  Geodetic{Lon: 90, Lat: 0, Height: 0},
			want: Cartesian3{Y: 6378137.0},
		},
		{
			name: "north pole",
			geo:  Geodetic{Lon: 0, Lat: 90, Height: 0},
			want: Cartesian3{Z: 6356752.314245179},
		},
		{
			name: "equator with height",
			geo:  Geodetic{Lon: 0, Lat: 0, Height: 100},
			want: Cartesian3{X: 6378237.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromGeodetic(tt.geo)
			// 1e-6 m: sub-micrometer, far below survey accuracy
			if !vectorsEqual(got, tt.want, 1e-6) {
				t.Errorf("FromGeodetic(%+v) = %+v, want %+v", tt.geo, got, tt.want)
			}
		})
	}
}

func TestToGeodetic_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geo  Geodetic
	}{
		{"mid latitude", Geodetic{Lon: 111.0, Lat: 29.5, Height: 380.0}},
		{"southern hemisphere", Geodetic{Lon: -58.3, Lat: -34.6, Height: 25.0}},
		{"high latitude", Geodetic{Lon: 18.0, Lat: 69.6, Height: 10.0}},
		{"negative height", Geodetic{Lon: 35.5, Lat: 31.5, Height: -400.0}},
		{"near pole", Geodetic{Lon: 0, Lat: 89.9, Height: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ecef := FromGeodetic(tt.geo)
			back := ToGeodetic(ecef)

			// Single-pass Bowring: centimeter-level accuracy near the
			// surface, which is far below instrument placement tolerance.
			if math.Abs(back.Lon-tt.geo.Lon) > 1e-7 {
				t.Errorf("Lon round trip: got %v, want %v", back.Lon, tt.geo.Lon)
			}
			if math.Abs(back.Lat-tt.geo.Lat) > 1e-7 {
				t.Errorf("Lat round trip: got %v, want %v", back.Lat, tt.geo.Lat)
			}
			if math.Abs(back.Height-tt.geo.Height) > 1e-2 {
				t.Errorf("Height round trip: got %v, want %v", back.Height, tt.geo.Height)
			}
		})
	}
}

func TestToGeodetic_PolarAxis(t *testing.T) {
	// Directly on the polar axis the general formula degenerates; the
	// conversion must still return the pole.
	geo := ToGeodetic(Cartesian3{Z: 6356752.314245179})
	if math.Abs(geo.Lat-90) > 1e-7 {
		t.Errorf("Lat = %v, want 90", geo.Lat)
	}
	if math.Abs(geo.Height) > 1e-2 {
		t.Errorf("Height = %v, want 0", geo.Height)
	}
}
