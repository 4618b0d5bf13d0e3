package align

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Instrument is one canonical sensor record from the relational store.
type Instrument struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Type        string  `json:"type"`
	Location    string  `json:"location,omitempty"`
	Elevation   float64 `json:"elevation,omitempty"`
	Section     string  `json:"section,omitempty"`
	InstallDate string  `json:"installDate,omitempty"`
	Status      string  `json:"status"`
}

// InstrumentType classifies an instrument code by its family prefix:
// EX* tension wires, TC* hydrostatic levels, IP* plumb lines.
func InstrumentType(code string) string {
	switch {
	case strings.HasPrefix(code, "EX"):
		return "tension_wire"
	case strings.HasPrefix(code, "TC"):
		return "hydrostatic_level"
	case strings.HasPrefix(code, "IP"):
		return "plumb_line"
	default:
		return "tension_wire"
	}
}

// Store is the sqlite-backed instrument catalog. It is the authority for
// canonical instrument codes; the alignment engine never writes positions
// here, it only reads identities.
type Store struct {
	*sql.DB
}

// OpenStore opens (creating if necessary) the instrument database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening instrument store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS monitoring_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			location TEXT,
			elevation DOUBLE,
			section TEXT,
			install_date TEXT,
			status TEXT DEFAULT 'normal'
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating instrument schema: %w", err)
	}

	return &Store{db}, nil
}

// UpsertInstrument inserts or refreshes one instrument record by code.
func (s *Store) UpsertInstrument(inst Instrument) error {
	if inst.Code == "" {
		return fmt.Errorf("instrument code is required")
	}
	if inst.Type == "" {
		inst.Type = InstrumentType(inst.Code)
	}
	if inst.Status == "" {
		inst.Status = "normal"
	}

	_, err := s.Exec(`
		INSERT INTO monitoring_points (name, type, location, elevation, section, install_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			location = excluded.location,
			elevation = excluded.elevation,
			section = excluded.section,
			install_date = excluded.install_date,
			status = excluded.status`,
		inst.Code, inst.Type, inst.Location, inst.Elevation, inst.Section, inst.InstallDate, inst.Status)
	if err != nil {
		return fmt.Errorf("upserting instrument %s: %w", inst.Code, err)
	}
	return nil
}

// InstrumentCodes returns every canonical instrument code in insertion
// order. This order is the catalog iteration order the resolver's fallback
// tier depends on, so it must be stable across calls.
func (s *Store) InstrumentCodes() ([]string, error) {
	rows, err := s.Query("SELECT name FROM monitoring_points ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying instrument codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return codes, nil
}

// Instruments returns every instrument record in insertion order.
func (s *Store) Instruments() ([]Instrument, error) {
	rows, err := s.Query(`
		SELECT id, name, type,
		       COALESCE(location, ''), COALESCE(elevation, 0),
		       COALESCE(section, ''), COALESCE(install_date, ''),
		       COALESCE(status, 'normal')
		FROM monitoring_points ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying instruments: %w", err)
	}
	defer rows.Close()

	var instruments []Instrument
	for rows.Next() {
		var inst Instrument
		if err := rows.Scan(&inst.ID, &inst.Code, &inst.Type, &inst.Location,
			&inst.Elevation, &inst.Section, &inst.InstallDate, &inst.Status); err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instruments, nil
}

// InstrumentByCode fetches a single record by its canonical code.
func (s *Store) InstrumentByCode(code string) (Instrument, bool, error) {
	var inst Instrument
	err := s.QueryRow(`
		SELECT id, name, type,
		       COALESCE(location, ''), COALESCE(elevation, 0),
		       COALESCE(section, ''), COALESCE(install_date, ''),
		       COALESCE(status, 'normal')
		FROM monitoring_points WHERE name = ?`, code).
		Scan(&inst.ID, &inst.Code, &inst.Type, &inst.Location,
			&inst.Elevation, &inst.Section, &inst.InstallDate, &inst.Status)
	if err == sql.ErrNoRows {
		return Instrument{}, false, nil
	}
	if err != nil {
		return Instrument{}, false, fmt.Errorf("querying instrument %s: %w", code, err)
	}
	return inst, true, nil
}
