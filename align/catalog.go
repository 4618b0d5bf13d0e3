package align

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
)

// ParseCatalogFile reads and parses an instrument point catalog JSON file.
func ParseCatalogFile(path string) ([]RawCatalogPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseCatalogJSON(data)
}

// ParseCatalogJSON parses a catalog from a JSON array of point records.
// Records with a missing point id or non-finite coordinates are dropped,
// not reported as errors; the caller gets only usable points.
func ParseCatalogJSON(data []byte) ([]RawCatalogPoint, error) {
	var raw []RawCatalogPoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog JSON: %w", err)
	}

	points := make([]RawCatalogPoint, 0, len(raw))
	dropped := 0
	for _, p := range raw {
		if p.PointID == "" || !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			dropped++
			continue
		}
		points = append(points, p)
	}

	if dropped > 0 {
		log.Printf("Warning: dropped %d malformed catalog point(s)", dropped)
	}

	return points, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CatalogSummary provides a summary of catalog contents.
type CatalogSummary struct {
	PointCount  int
	TaggedCount int
	PointIDs    []string
	MinLocal    Cartesian3
	MaxLocal    Cartesian3
}

// SummarizeCatalog extracts key information from a loaded catalog.
func SummarizeCatalog(points []RawCatalogPoint) CatalogSummary {
	summary := CatalogSummary{PointCount: len(points)}
	if len(points) == 0 {
		return summary
	}

	summary.MinLocal = Cartesian3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	summary.MaxLocal = Cartesian3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}

	for _, p := range points {
		if p.Tag != nil {
			summary.TaggedCount++
		}
		summary.PointIDs = append(summary.PointIDs, p.PointID)

		summary.MinLocal.X = math.Min(summary.MinLocal.X, p.X)
		summary.MinLocal.Y = math.Min(summary.MinLocal.Y, p.Y)
		summary.MinLocal.Z = math.Min(summary.MinLocal.Z, p.Z)
		summary.MaxLocal.X = math.Max(summary.MaxLocal.X, p.X)
		summary.MaxLocal.Y = math.Max(summary.MaxLocal.Y, p.Y)
		summary.MaxLocal.Z = math.Max(summary.MaxLocal.Z, p.Z)
	}

	sort.Strings(summary.PointIDs)
	return summary
}
