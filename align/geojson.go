package align

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// AlignmentFeatureCollection converts an alignment snapshot into a GeoJSON
// FeatureCollection of lon/lat points. The marker-placement layer consumes
// this to render entities; the properties carry everything pick handling
// later needs (point id, db code, link state, source tag, height).
func AlignmentFeatureCollection(instruments []AlignedInstrument) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, inst := range instruments {
		f := geojson.NewFeature(orb.Point{inst.Geodetic.Lon, inst.Geodetic.Lat})
		f.ID = inst.PointID
		f.Properties["pointId"] = inst.PointID
		f.Properties["height"] = inst.Geodetic.Height
		f.Properties["linked"] = inst.Linked()
		if inst.DBCode != "" {
			f.Properties["dbCode"] = inst.DBCode
		}
		if inst.SourceTag != nil {
			f.Properties["tag"] = *inst.SourceTag
		}
		fc.Append(f)
	}

	return fc
}
