package align

import (
	"log"
	"strings"
	"sync"
)

// Tier identifies which rung of the resolution chain produced a db code.
type Tier int

const (
	// TierNone means the chain terminated without a match.
	TierNone Tier = iota
	// TierTag is reserved for the tag -> pointID hop; a tag alone never
	// yields a db code, so it never appears as a final tier.
	TierTag
	// TierAlias is an exact alias-table hit.
	TierAlias
	// TierCatalog means the point id itself is a known instrument code.
	TierCatalog
	// TierFuzzy is the substring / base-name fallback.
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierTag:
		return "tag"
	case TierAlias:
		return "alias"
	case TierCatalog:
		return "catalog"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Resolution is the outcome of an identity lookup. DBCode is empty when no
// canonical code matched; PointID is empty when not even the tag was known.
// A zero Resolution is a valid "nothing matched" answer.
type Resolution struct {
	PointID string `json:"pointId,omitempty"`
	DBCode  string `json:"dbCode,omitempty"`
	Tier    Tier   `json:"tier"`
}

// Resolver maps between the three naming domains: numeric tile-feature tags,
// catalog point identifiers, and the store's canonical instrument codes.
// Lookups never fail; every input degrades to a (possibly empty) Resolution.
//
// The static tables are fixed at construction; the known-instrument list is
// refreshed whenever the backing store's catalog changes.
type Resolver struct {
	tags    TagIndex
	aliases AliasIndex

	mu       sync.RWMutex
	known    []string // catalog iteration order, preserved for determinism
	knownSet map[string]struct{}
}

// NewResolver creates a resolver over the static mapping tables. Alias keys
// are uppercased once here so lookups are case-insensitive.
func NewResolver(tables Tables) *Resolver {
	aliases := make(AliasIndex, len(tables.Aliases))
	for id, code := range tables.Aliases {
		aliases[strings.ToUpper(id)] = code
	}

	tags := make(TagIndex, len(tables.Tags))
	for tag, id := range tables.Tags {
		tags[tag] = id
	}

	return &Resolver{
		tags:     tags,
		aliases:  aliases,
		knownSet: make(map[string]struct{}),
	}
}

// SetKnownInstruments replaces the live set of canonical instrument codes.
// Order is preserved: the fuzzy fallback tier is deterministic in catalog
// iteration order.
func (r *Resolver) SetKnownInstruments(codes []string) {
	known := make([]string, len(codes))
	copy(known, codes)

	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}

	r.mu.Lock()
	r.known = known
	r.knownSet = set
	r.mu.Unlock()
}

// KnownInstruments returns a copy of the current instrument code list.
func (r *Resolver) KnownInstruments() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.known))
	copy(out, r.known)
	return out
}

// IsKnown reports whether a code is present in the live instrument catalog.
func (r *Resolver) IsKnown(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.knownSet[code]
	return ok
}

// ResolveTag resolves a numeric tag extracted from a picked tile feature.
// Tier 1 maps the tag to a point id; the remaining tiers then run as for
// ResolvePointID. An unknown tag yields a zero Resolution.
func (r *Resolver) ResolveTag(tag int64) Resolution {
	pointID, ok := r.tags[tag]
	if !ok {
		return Resolution{}
	}
	return r.ResolvePointID(pointID)
}

// ResolvePointID resolves a catalog point id to a canonical instrument code
// using the strict precedence chain: alias table, exact catalog match, then
// the fuzzy fallback. The chain stops at the first tier that yields a
// result; an empty point id or an empty instrument catalog simply
// terminates early with an unlinked Resolution.
func (r *Resolver) ResolvePointID(pointID string) Resolution {
	if pointID == "" {
		return Resolution{}
	}

	upper := strings.ToUpper(pointID)

	// Tier 2: exact alias lookup.
	if code, ok := r.aliases[upper]; ok {
		return Resolution{PointID: pointID, DBCode: code, Tier: TierAlias}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Tier 3: the point id itself is a known instrument code.
	if _, ok := r.knownSet[pointID]; ok {
		return Resolution{PointID: pointID, DBCode: pointID, Tier: TierCatalog}
	}

	// Tier 4: prefix/fuzzy fallback over the catalog in iteration order.
	// First match wins; ties are broken by catalog order. Deterministic but
	// not guaranteed globally optimal.
	var matches []string
	for _, code := range r.known {
		if strings.Contains(strings.ToUpper(code), upper) || baseName(code) == upper {
			matches = append(matches, code)
		}
	}
	if len(matches) > 0 {
		if len(matches) > 1 {
			log.Printf("Warning: point %s matches %d instrument codes %v, keeping %s",
				pointID, len(matches), matches, matches[0])
		}
		return Resolution{PointID: pointID, DBCode: matches[0], Tier: TierFuzzy}
	}

	// Tier 5: no match. Still a valid answer.
	return Resolution{PointID: pointID, Tier: TierNone}
}

// baseName strips a trailing -<digits> suffix from an instrument code and
// uppercases the result, relating the model's generic identifier (EX1) to
// the store's suffixed variants (EX1-2).
func baseName(code string) string {
	upper := strings.ToUpper(code)
	i := strings.LastIndexByte(upper, '-')
	if i <= 0 || i == len(upper)-1 {
		return upper
	}
	for _, c := range upper[i+1:] {
		if c < '0' || c > '9' {
			return upper
		}
	}
	return upper[:i]
}
