package align

// RawCatalogPoint is a single instrument position as authored in the
// engineering model's local coordinate space. Coordinates are millimeters.
// Records are immutable once loaded; invalid (non-finite) records never
// make it out of the catalog loader.
type RawCatalogPoint struct {
	PointID string  `json:"pointId"`
	Tag     *int64  `json:"tag,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Geodetic is a longitude/latitude/height position. Longitude and latitude
// are degrees, height is meters above the WGS84 ellipsoid.
type Geodetic struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`
}

// AlignedInstrument is a catalog point placed in world space. DBCode is
// filled by the identity resolver and may be empty when no canonical
// instrument code matches; the position is valid either way.
type AlignedInstrument struct {
	PointID   string     `json:"pointId"`
	DBCode    string     `json:"dbCode,omitempty"`
	World     Cartesian3 `json:"world"`
	Geodetic  Geodetic   `json:"geodetic"`
	SourceTag *int64     `json:"sourceTag,omitempty"`
}

// Linked reports whether the instrument resolved to a canonical store code.
func (a *AlignedInstrument) Linked() bool {
	return a.DBCode != ""
}

// TagIndex maps numeric tags embedded in 3D-tile feature metadata to catalog
// point identifiers. Append-only reference data, never mutated at runtime.
type TagIndex map[int64]string

// AliasIndex maps catalog point identifiers to canonical instrument codes,
// encoding the naming mismatch between the model's base identifiers (EX1)
// and the store's suffixed codes (EX1-2). Absence of an entry is legal.
type AliasIndex map[string]string

// Tables bundles the static mapping tables versioned alongside the catalog.
type Tables struct {
	Tags    TagIndex   `yaml:"tags" json:"tags"`
	Aliases AliasIndex `yaml:"aliases" json:"aliases"`
}

// Config represents the full configuration file.
type Config struct {
	MQTT        MQTTConfig `yaml:"mqtt" json:"mqtt"`
	CatalogFile string     `yaml:"catalog" json:"catalog"`
	TablesFile  string     `yaml:"tables" json:"tables"`
	StorePath   string     `yaml:"store,omitempty" json:"store,omitempty"`
	HTTPPort    int        `yaml:"httpPort,omitempty" json:"httpPort,omitempty"`
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker           string `yaml:"broker" json:"broker"`
	ClientID         string `yaml:"clientId" json:"clientId"`
	PublishPrefix    string `yaml:"publishPrefix" json:"publishPrefix"`
	InstrumentsTopic string `yaml:"instrumentsTopic" json:"instrumentsTopic"`
	Username         string `yaml:"username,omitempty" json:"username,omitempty"`
	Password         string `yaml:"password,omitempty" json:"password,omitempty"`
}
