package align

import "sync"

// Registry is the alignment cache: the last-computed world position for each
// instrument, keyed by both the raw catalog point id and, where resolved,
// the canonical db code. It is an arena owned by the alignment session;
// Replace swaps the entire contents atomically so in-flight readers never
// observe a mix of stale and fresh positions.
type Registry struct {
	mu         sync.RWMutex
	byKey      map[string]*AlignedInstrument
	ordered    []*AlignedInstrument
	generation uint64
}

// NewRegistry creates an empty alignment cache.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]*AlignedInstrument),
	}
}

// Replace atomically swaps the cache contents with a freshly computed
// alignment. Every previous entry is discarded; the generation counter is
// bumped so callers can detect that positions from an earlier anchor are
// gone.
func (r *Registry) Replace(instruments []AlignedInstrument) {
	byKey := make(map[string]*AlignedInstrument, len(instruments)*2)
	ordered := make([]*AlignedInstrument, 0, len(instruments))

	for i := range instruments {
		inst := instruments[i]
		ordered = append(ordered, &inst)
		byKey[inst.PointID] = &inst
		if inst.DBCode != "" {
			byKey[inst.DBCode] = &inst
		}
	}

	r.mu.Lock()
	r.byKey = byKey
	r.ordered = ordered
	r.generation++
	r.mu.Unlock()
}

// Clear discards all cached positions, e.g. when the tiled asset unloads.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.byKey = make(map[string]*AlignedInstrument)
	r.ordered = nil
	r.generation++
	r.mu.Unlock()
}

// Get looks up an instrument by point id or db code. The returned value is
// a copy; mutating it does not affect the cache.
func (r *Registry) Get(key string) (AlignedInstrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byKey[key]
	if !ok {
		return AlignedInstrument{}, false
	}
	return *inst, true
}

// All returns a copy of every cached instrument in catalog order.
func (r *Registry) All() []AlignedInstrument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AlignedInstrument, 0, len(r.ordered))
	for _, inst := range r.ordered {
		out = append(out, *inst)
	}
	return out
}

// Len returns the number of cached instruments (not keys).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// Generation returns a counter that increments on every Replace or Clear.
// Two reads with equal generations saw the same alignment.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}
