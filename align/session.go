package align

import (
	"log"
	"sync"
)

// AlignmentHandler is called after each successful realignment with the
// freshly computed instruments (a copy; safe to retain).
type AlignmentHandler func(instruments []AlignedInstrument)

// Session owns one alignment lifecycle: the loaded catalog, the tiled
// asset's world anchor, the live instrument catalog, and the alignment
// cache derived from them.
//
// Catalog loading, tileset loading, and instrument-catalog fetching are
// independent asynchronous operations with no ordering requirement between
// them; the transform pipeline runs only once the catalog and the anchor
// are both present. Each input setter re-runs the pipeline when the gate is
// satisfied, and every run atomically replaces the cache contents.
type Session struct {
	resolver *Resolver
	registry *Registry

	mu      sync.Mutex
	catalog []RawCatalogPoint
	anchor  *WorldAnchor
	handler AlignmentHandler
}

// NewSession creates a session over the given static tables.
func NewSession(tables Tables) *Session {
	return &Session{
		resolver: NewResolver(tables),
		registry: NewRegistry(),
	}
}

// Resolver returns the session's identity resolver.
func (s *Session) Resolver() *Resolver { return s.resolver }

// Registry returns the session's alignment cache.
func (s *Session) Registry() *Registry { return s.registry }

// OnAlignment registers a handler invoked after every realignment.
func (s *Session) OnAlignment(h AlignmentHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SetCatalog installs a freshly loaded point catalog and realigns if the
// anchor is already known.
func (s *Session) SetCatalog(points []RawCatalogPoint) {
	s.mu.Lock()
	s.catalog = points
	s.mu.Unlock()
	s.realign()
}

// SetAnchor installs the world anchor supplied once the tiled asset
// finishes loading, replacing any previous anchor wholesale. Positions
// computed under the old anchor are invalidated by the realignment (or by
// an explicit cache clear when the new anchor is not usable).
func (s *Session) SetAnchor(anchor *WorldAnchor) {
	s.mu.Lock()
	s.anchor = anchor
	s.mu.Unlock()

	if !anchor.Valid() {
		// Asset unloaded or bogus anchor: stale placements must not
		// survive it.
		s.registry.Clear()
		return
	}
	s.realign()
}

// SetKnownInstruments refreshes the live instrument-code catalog and
// re-resolves identities, since db-code assignments may change.
func (s *Session) SetKnownInstruments(codes []string) {
	s.resolver.SetKnownInstruments(codes)
	s.realign()
}

// Ready reports whether both async inputs have arrived.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.catalog) > 0 && s.anchor.Valid()
}

// Anchor returns the current world anchor, or nil before the tileset loads.
func (s *Session) Anchor() *WorldAnchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchor
}

// Catalog returns the loaded catalog points.
func (s *Session) Catalog() []RawCatalogPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Align runs the transform pipeline on demand, returning ErrAnchorNotReady
// when the gate is not satisfied. Most callers rely on the setters to
// realign implicitly; this is the explicit entry point for one-shot use.
func (s *Session) Align() ([]AlignedInstrument, error) {
	s.mu.Lock()
	catalog := s.catalog
	anchor := s.anchor
	handler := s.handler
	s.mu.Unlock()

	if len(catalog) == 0 || !anchor.Valid() {
		return nil, ErrAnchorNotReady
	}

	aligned, err := TransformCatalog(catalog, anchor, s.resolver)
	if err != nil {
		return nil, err
	}

	s.registry.Replace(aligned)

	if handler != nil {
		out := make([]AlignedInstrument, len(aligned))
		copy(out, aligned)
		handler(out)
	}

	return aligned, nil
}

// realign is the gated pipeline run used by the input setters. A not-ready
// gate is normal while the other async input is still in flight.
func (s *Session) realign() {
	if _, err := s.Align(); err != nil {
		if err != ErrAnchorNotReady {
			log.Printf("Warning: realignment failed: %v", err)
		}
	}
}

// NewDispatcher creates a pick dispatcher bound to this session's resolver
// and alignment cache.
func (s *Session) NewDispatcher() *Dispatcher {
	return NewDispatcher(s.resolver, s.registry)
}
