package align

import "math"

// Frame is an orthonormal local-to-world transform: three basis columns
// (east, north, up) plus a translation. Applying it maps a local ENU offset
// in meters to world ECEF coordinates.
type Frame struct {
	East   Cartesian3 `json:"east"`
	North  Cartesian3 `json:"north"`
	Up     Cartesian3 `json:"up"`
	Origin Cartesian3 `json:"origin"`
}

// IdentityFrame returns a frame whose basis is aligned with the world axes
// and whose origin is the world origin. Used in tests and degenerate cases.
func IdentityFrame() Frame {
	return Frame{
		East:  Cartesian3{X: 1},
		North: Cartesian3{Y: 1},
		Up:    Cartesian3{Z: 1},
	}
}

// Apply maps a local (east, north, up) offset through the frame to world
// coordinates.
func (f Frame) Apply(offset Cartesian3) Cartesian3 {
	return Cartesian3{
		X: f.East.X*offset.X + f.North.X*offset.Y + f.Up.X*offset.Z + f.Origin.X,
		Y: f.East.Y*offset.X + f.North.Y*offset.Y + f.Up.Y*offset.Z + f.Origin.Y,
		Z: f.East.Z*offset.X + f.North.Z*offset.Y + f.Up.Z*offset.Z + f.Origin.Z,
	}
}

// EastNorthUpFrame constructs the local east-north-up frame anchored at the
// given ECEF position. Up is the geodetic surface normal, east is tangent to
// the parallel of latitude, north completes the right-handed basis.
//
// At the poles east/north are ill-defined from the normal alone; the frame
// falls back to the world axes there so the result stays orthonormal.
func EastNorthUpFrame(center Cartesian3) Frame {
	up := geodeticSurfaceNormal(center)

	east := Cartesian3{X: -center.Y, Y: center.X}
	if east.Norm() < 1e-9 {
		// Polar anchor: pick an arbitrary but deterministic east.
		east = Cartesian3{X: 1}
	}
	east = east.Normalize()

	north := up.Cross(east).Normalize()

	return Frame{
		East:   east,
		North:  north,
		Up:     up,
		Origin: center,
	}
}

// WorldAnchor ties a loaded tiled asset to world space: the world-space
// center of its bounding sphere and the ENU frame anchored there. A new
// anchor is built wholesale every time the asset loads or re-centers;
// anchors are never patched in place.
type WorldAnchor struct {
	Center         Cartesian3 `json:"center"`
	BoundingRadius float64    `json:"boundingRadius"`
	Frame          Frame      `json:"frame"`
}

// NewWorldAnchor builds the anchor for a tileset whose bounding sphere is
// centered at center with the given radius. Construction is a pure function
// of the center and the WGS84 datum.
func NewWorldAnchor(center Cartesian3, boundingRadius float64) *WorldAnchor {
	return &WorldAnchor{
		Center:         center,
		BoundingRadius: boundingRadius,
		Frame:          EastNorthUpFrame(center),
	}
}

// Valid reports whether the anchor is usable: a finite center and a finite,
// non-negative bounding radius.
func (w *WorldAnchor) Valid() bool {
	if w == nil {
		return false
	}
	if !w.Center.IsFinite() {
		return false
	}
	return !math.IsNaN(w.BoundingRadius) && !math.IsInf(w.BoundingRadius, 0) && w.BoundingRadius >= 0
}
