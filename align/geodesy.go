package align

import "math"

// WGS84 ellipsoid parameters.
const (
	wgs84SemiMajor = 6378137.0         // a, meters
	wgs84SemiMinor = 6356752.314245179 // b, meters
)

var (
	wgs84Ecc2      = 1 - (wgs84SemiMinor*wgs84SemiMinor)/(wgs84SemiMajor*wgs84SemiMajor) // first eccentricity squared
	wgs84EccPrime2 = (wgs84SemiMajor*wgs84SemiMajor)/(wgs84SemiMinor*wgs84SemiMinor) - 1 // second eccentricity squared
)

// Cartesian3 is an earth-centered, earth-fixed (ECEF) position or vector in
// meters.
type Cartesian3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Cartesian3) Add(w Cartesian3) Cartesian3 {
	return Cartesian3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Cartesian3) Sub(w Cartesian3) Cartesian3 {
	return Cartesian3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Cartesian3) Scale(s float64) Cartesian3 {
	return Cartesian3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Cartesian3) Dot(w Cartesian3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of v and w.
func (v Cartesian3) Cross(w Cartesian3) Cartesian3 {
	return Cartesian3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Cartesian3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Cartesian3) Normalize() Cartesian3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// IsFinite reports whether all three components are finite numbers.
func (v Cartesian3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// FromGeodetic converts a geodetic position to ECEF Cartesian coordinates
// using the closed-form WGS84 expression.
func FromGeodetic(g Geodetic) Cartesian3 {
	lat := g.Lat * math.Pi / 180
	lon := g.Lon * math.Pi / 180

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Prime vertical radius of curvature.
	n := wgs84SemiMajor / math.Sqrt(1-wgs84Ecc2*sinLat*sinLat)

	return Cartesian3{
		X: (n + g.Height) * cosLat * math.Cos(lon),
		Y: (n + g.Height) * cosLat * math.Sin(lon),
		Z: (n*(1-wgs84Ecc2) + g.Height) * sinLat,
	}
}

// ToGeodetic converts an ECEF Cartesian position to geodetic coordinates
// using Bowring's method. Accuracy is well below a millimeter for positions
// anywhere near the ellipsoid surface, which covers every tiled asset this
// engine will ever see.
func ToGeodetic(c Cartesian3) Geodetic {
	lon := math.Atan2(c.Y, c.X)
	p := math.Hypot(c.X, c.Y)

	if p == 0 {
		// On the polar axis latitude degenerates to +-90.
		lat := math.Pi / 2
		if c.Z < 0 {
			lat = -lat
		}
		return Geodetic{
			Lon:    lon * 180 / math.Pi,
			Lat:    lat * 180 / math.Pi,
			Height: math.Abs(c.Z) - wgs84SemiMinor,
		}
	}

	theta := math.Atan2(c.Z*wgs84SemiMajor, p*wgs84SemiMinor)
	sinTheta := math.Sin(theta)
	cosTheta := math.Cos(theta)

	lat := math.Atan2(
		c.Z+wgs84EccPrime2*wgs84SemiMinor*sinTheta*sinTheta*sinTheta,
		p-wgs84Ecc2*wgs84SemiMajor*cosTheta*cosTheta*cosTheta,
	)

	sinLat := math.Sin(lat)
	n := wgs84SemiMajor / math.Sqrt(1-wgs84Ecc2*sinLat*sinLat)
	height := p/math.Cos(lat) - n

	return Geodetic{
		Lon:    lon * 180 / math.Pi,
		Lat:    lat * 180 / math.Pi,
		Height: height,
	}
}

// geodeticSurfaceNormal returns the outward ellipsoid surface normal at an
// ECEF position. This is the "up" direction of a local east-north-up frame.
func geodeticSurfaceNormal(c Cartesian3) Cartesian3 {
	return Cartesian3{
		X: c.X / (wgs84SemiMajor * wgs84SemiMajor),
		Y: c.Y / (wgs84SemiMajor * wgs84SemiMajor),
		Z: c.Z / (wgs84SemiMinor * wgs84SemiMinor),
	}.Normalize()
}
