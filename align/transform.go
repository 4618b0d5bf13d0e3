package align

import "errors"

// ErrAnchorNotReady is returned when a transform is requested before the
// tiled asset's world anchor is known. Callers must wait for the anchor
// rather than retry blindly.
var ErrAnchorNotReady = errors.New("world anchor not ready")

// millimetersPerMeter converts the catalog's raw local units to meters.
const millimetersPerMeter = 1000.0

// LocalOffset remaps a catalog point's local millimeter coordinates onto the
// ENU axes in meters. The mapping is a fixed, empirically determined
// convention of how the two coordinate systems were authored:
//
//	local Y -> east, local X -> north, local Z -> up
//
// It is not derived geometrically and must not be "corrected".
func LocalOffset(p RawCatalogPoint) Cartesian3 {
	return Cartesian3{
		X: p.Y / millimetersPerMeter, // east
		Y: p.X / millimetersPerMeter, // north
		Z: p.Z / millimetersPerMeter, // up
	}
}

// TransformPoint places a single catalog point in world space through the
// anchor's ENU frame. The catalog's local origin is the alignment origin;
// there is deliberately no centroid recentring, which produced visibly wrong
// placements for points distributed asymmetrically around the structure.
func TransformPoint(p RawCatalogPoint, anchor *WorldAnchor) (AlignedInstrument, error) {
	if !anchor.Valid() {
		return AlignedInstrument{}, ErrAnchorNotReady
	}

	world := anchor.Frame.Apply(LocalOffset(p))

	return AlignedInstrument{
		PointID:   p.PointID,
		World:     world,
		Geodetic:  ToGeodetic(world),
		SourceTag: p.Tag,
	}, nil
}

// TransformCatalog places every catalog point in world space and resolves
// each point's canonical instrument code through the resolver. Points are
// processed in catalog order so the output is deterministic for a fixed
// anchor and catalog.
func TransformCatalog(points []RawCatalogPoint, anchor *WorldAnchor, resolver *Resolver) ([]AlignedInstrument, error) {
	if !anchor.Valid() {
		return nil, ErrAnchorNotReady
	}

	aligned := make([]AlignedInstrument, 0, len(points))
	for _, p := range points {
		inst, err := TransformPoint(p, anchor)
		if err != nil {
			return nil, err
		}
		if resolver != nil {
			res := resolver.ResolvePointID(p.PointID)
			inst.DBCode = res.DBCode
		}
		aligned = append(aligned, inst)
	}

	return aligned, nil
}
