package align

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCatalogJSON(t *testing.T) {
	data := []byte(`[
		{"pointId": "EX1", "tag": 100, "x": 1000, "y": 2000, "z": 500},
		{"pointId": "TC3", "x": -500, "y": 0, "z": 300}
	]`)

	points, err := ParseCatalogJSON(data)
	if err != nil {
		t.Fatalf("ParseCatalogJSON error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}

	p := points[0]
	if p.PointID != "EX1" {
		t.Errorf("PointID = %q, want EX1", p.PointID)
	}
	if p.Tag == nil || *p.Tag != 100 {
		t.Errorf("Tag = %v, want 100", p.Tag)
	}
	if p.X != 1000 || p.Y != 2000 || p.Z != 500 {
		t.Errorf("coords = (%v, %v, %v)", p.X, p.Y, p.Z)
	}

	if points[1].Tag != nil {
		t.Error("untagged point should have nil Tag")
	}
}

func TestParseCatalogJSON_DropsMalformed(t *testing.T) {
	data := []byte(`[
		{"pointId": "EX1", "x": 1, "y": 2, "z": 3},
		{"pointId": "", "x": 1, "y": 2, "z": 3},
		{"pointId": "TC3", "x": 4, "y": 5, "z": 6}
	]`)

	points, err := ParseCatalogJSON(data)
	if err != nil {
		t.Fatalf("ParseCatalogJSON error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (empty id dropped)", len(points))
	}
	if points[0].PointID != "EX1" || points[1].PointID != "TC3" {
		t.Errorf("surviving points = %v", points)
	}
}

func TestParseCatalogJSON_InvalidJSON(t *testing.T) {
	if _, err := ParseCatalogJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseCatalogJSON([]byte(`{"pointId": "EX1"}`)); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestParseCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `[{"pointId": "IP2", "x": 0, "y": 0, "z": 0}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	points, err := ParseCatalogFile(path)
	if err != nil {
		t.Fatalf("ParseCatalogFile error: %v", err)
	}
	if len(points) != 1 || points[0].PointID != "IP2" {
		t.Errorf("points = %v", points)
	}

	if _, err := ParseCatalogFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSummarizeCatalog(t *testing.T) {
	tag := int64(100)
	points := []RawCatalogPoint{
		{PointID: "TC3", X: -500, Y: 0, Z: 300},
		{PointID: "EX1", Tag: &tag, X: 1000, Y: 2000, Z: 500},
	}

	s := SummarizeCatalog(points)
	if s.PointCount != 2 {
		t.Errorf("PointCount = %d, want 2", s.PointCount)
	}
	if s.TaggedCount != 1 {
		t.Errorf("TaggedCount = %d, want 1", s.TaggedCount)
	}
	// IDs are sorted for stable reporting
	if len(s.PointIDs) != 2 || s.PointIDs[0] != "EX1" || s.PointIDs[1] != "TC3" {
		t.Errorf("PointIDs = %v", s.PointIDs)
	}
	if s.MinLocal.X != -500 || s.MaxLocal.X != 1000 {
		t.Errorf("X bounds = [%v, %v]", s.MinLocal.X, s.MaxLocal.X)
	}
	if s.MinLocal.Z != 300 || s.MaxLocal.Z != 500 {
		t.Errorf("Z bounds = [%v, %v]", s.MinLocal.Z, s.MaxLocal.Z)
	}
}

func TestSummarizeCatalog_Empty(t *testing.T) {
	s := SummarizeCatalog(nil)
	if s.PointCount != 0 || s.TaggedCount != 0 || len(s.PointIDs) != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}
