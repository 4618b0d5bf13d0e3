package align

import (
	"sync"

	"github.com/google/uuid"
)

// PickKind discriminates the tagged pick outcome the UI layer branches on.
type PickKind string

const (
	// PickInstrument is a pick that resolved to a canonical instrument code
	// present in the live instrument catalog.
	PickInstrument PickKind = "instrument"
	// PickUnlinkedPoint is a recognized catalog point with no usable store
	// code; only raw catalog info can be shown.
	PickUnlinkedPoint PickKind = "unlinkedPoint"
	// PickStructural is a raw structural tile feature with no instrument
	// identity; its attributes are exposed for inspection instead.
	PickStructural PickKind = "structuralComponent"
	// PickNone is a miss: nothing usable was picked and any current
	// selection is cleared.
	PickNone PickKind = "none"
)

// PickedMarker is a previously placed instrument marker carrying the
// identity attached at placement time. No resolution is needed for these.
type PickedMarker struct {
	PointID string `json:"pointId"`
	DBCode  string `json:"dbCode,omitempty"`
}

// PickedFeature is a raw structural tile feature: a numeric tag, if the
// feature carries one, plus whatever key/value metadata the tile embeds.
type PickedFeature struct {
	Tag        *int64         `json:"tag,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// PickInput is one pointer event's scene-pick payload. At most one of
// Marker and Feature is set; neither set means nothing was picked.
type PickInput struct {
	Marker  *PickedMarker  `json:"marker,omitempty"`
	Feature *PickedFeature `json:"feature,omitempty"`
}

// PickResult is the tagged outcome of a dispatch. Exactly the fields for
// its Kind are populated; Position is filled from the alignment cache when
// the picked identity has a cached placement.
type PickResult struct {
	EventID    string             `json:"eventId"`
	Kind       PickKind           `json:"kind"`
	PointID    string             `json:"pointId,omitempty"`
	DBCode     string             `json:"dbCode,omitempty"`
	Tag        *int64             `json:"tag,omitempty"`
	Attributes map[string]any     `json:"attributes,omitempty"`
	Position   *AlignedInstrument `json:"position,omitempty"`
}

// DispatchState is the pick dispatcher's observable state. Every pointer
// event runs Idle -> Picking -> terminal -> Idle within a single Dispatch
// call; the field exists so the service layer can report what the last
// event did.
type DispatchState string

const (
	StateIdle       DispatchState = "idle"
	StatePicking    DispatchState = "picking"
	StateMarkerHit  DispatchState = "markerHit"
	StateFeatureHit DispatchState = "featureHit"
	StateMiss       DispatchState = "miss"
)

// Dispatcher routes scene picks to the identity resolver and alignment
// cache, producing the three-way instrument / unlinked / structural contract
// that UI layers consume.
type Dispatcher struct {
	resolver *Resolver
	registry *Registry

	mu        sync.Mutex
	lastState DispatchState
	selection *PickResult
}

// NewDispatcher creates a dispatcher over the given resolver and cache.
func NewDispatcher(resolver *Resolver, registry *Registry) *Dispatcher {
	return &Dispatcher{
		resolver:  resolver,
		registry:  registry,
		lastState: StateIdle,
	}
}

// Dispatch handles one pointer event. Marker hits read their stored
// identity directly; feature hits run the resolver from the tag tier
// onward; anything else is a miss that clears the current selection.
// Dispatch never fails: every input maps to a PickResult.
func (d *Dispatcher) Dispatch(input PickInput) PickResult {
	result := d.route(input)
	result.EventID = uuid.NewString()

	d.mu.Lock()
	switch result.Kind {
	case PickNone:
		d.lastState = StateMiss
		d.selection = nil
	default:
		if input.Marker != nil {
			d.lastState = StateMarkerHit
		} else {
			d.lastState = StateFeatureHit
		}
		sel := result
		d.selection = &sel
	}
	d.mu.Unlock()

	return result
}

func (d *Dispatcher) route(input PickInput) PickResult {
	switch {
	case input.Marker != nil:
		return d.routeMarker(input.Marker)
	case input.Feature != nil:
		return d.routeFeature(input.Feature)
	default:
		return PickResult{Kind: PickNone}
	}
}

// routeMarker handles a pick of a placed instrument marker. Identity was
// resolved at placement time, so the stored point id / db code are read
// back without running the resolver again.
func (d *Dispatcher) routeMarker(m *PickedMarker) PickResult {
	result := PickResult{
		PointID: m.PointID,
		DBCode:  m.DBCode,
	}

	if m.DBCode != "" {
		result.Kind = PickInstrument
	} else if m.PointID != "" {
		result.Kind = PickUnlinkedPoint
	} else {
		return PickResult{Kind: PickNone}
	}

	d.attachPosition(&result)
	return result
}

// routeFeature handles a pick of a raw structural tile feature: extract the
// tag, resolve, and branch three ways. A feature with no tag, or a tag no
// table knows, is a structural-component selection exposing the feature's
// attributes rather than instrument data.
func (d *Dispatcher) routeFeature(f *PickedFeature) PickResult {
	if f.Tag == nil {
		if len(f.Attributes) == 0 {
			return PickResult{Kind: PickNone}
		}
		return PickResult{Kind: PickStructural, Attributes: f.Attributes}
	}

	res := d.resolver.ResolveTag(*f.Tag)
	if res.PointID == "" {
		return PickResult{
			Kind:       PickStructural,
			Tag:        f.Tag,
			Attributes: f.Attributes,
		}
	}

	result := PickResult{
		PointID: res.PointID,
		Tag:     f.Tag,
	}

	if res.DBCode != "" && d.resolver.IsKnown(res.DBCode) {
		result.Kind = PickInstrument
		result.DBCode = res.DBCode
	} else {
		result.Kind = PickUnlinkedPoint
	}

	d.attachPosition(&result)
	return result
}

// attachPosition fills in the cached world position so the UI can focus the
// camera without a second round trip. Lookup is by db code first, falling
// back to point id; both keys are populated at placement time.
func (d *Dispatcher) attachPosition(result *PickResult) {
	if d.registry == nil {
		return
	}
	key := result.DBCode
	if key == "" {
		key = result.PointID
	}
	if inst, ok := d.registry.Get(key); ok {
		result.Position = &inst
	} else if result.PointID != "" && result.PointID != key {
		if inst, ok := d.registry.Get(result.PointID); ok {
			result.Position = &inst
		}
	}
}

// LastState returns the terminal state of the most recent pointer event.
func (d *Dispatcher) LastState() DispatchState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastState
}

// Selection returns the current selection, or nil after a miss.
func (d *Dispatcher) Selection() *PickResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selection == nil {
		return nil
	}
	sel := *d.selection
	return &sel
}
