package align

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "instruments.db"))
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInstrumentType(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"EX1-2", "tension_wire"},
		{"TC3", "hydrostatic_level"},
		{"IP5", "plumb_line"},
		{"XY9", "tension_wire"}, // unknown prefix falls back
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := InstrumentType(tt.code); got != tt.want {
				t.Errorf("InstrumentType(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestStore_UpsertAndFetch(t *testing.T) {
	store := openTestStore(t)

	err := store.UpsertInstrument(Instrument{
		Code:      "EX1-2",
		Location:  "dam crest, section 4",
		Elevation: 384.2,
		Section:   "4",
	})
	if err != nil {
		t.Fatalf("UpsertInstrument error: %v", err)
	}

	inst, found, err := store.InstrumentByCode("EX1-2")
	if err != nil {
		t.Fatalf("InstrumentByCode error: %v", err)
	}
	if !found {
		t.Fatal("EX1-2 not found after upsert")
	}
	if inst.Type != "tension_wire" {
		t.Errorf("Type = %q, want tension_wire (derived from code)", inst.Type)
	}
	if inst.Status != "normal" {
		t.Errorf("Status = %q, want normal default", inst.Status)
	}
	if inst.Elevation != 384.2 {
		t.Errorf("Elevation = %v, want 384.2", inst.Elevation)
	}
}

func TestStore_UpsertRefreshes(t *testing.T) {
	store := openTestStore(t)

	if err := store.UpsertInstrument(Instrument{Code: "TC3", Location: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertInstrument(Instrument{Code: "TC3", Location: "new", Status: "fault"}); err != nil {
		t.Fatal(err)
	}

	inst, _, err := store.InstrumentByCode("TC3")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Location != "new" {
		t.Errorf("Location = %q, want new", inst.Location)
	}
	if inst.Status != "fault" {
		t.Errorf("Status = %q, want fault", inst.Status)
	}

	codes, err := store.InstrumentCodes()
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 1 {
		t.Errorf("upsert duplicated the row: codes = %v", codes)
	}
}

func TestStore_UpsertRequiresCode(t *testing.T) {
	store := openTestStore(t)
	if err := store.UpsertInstrument(Instrument{}); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestStore_InstrumentCodesOrder(t *testing.T) {
	store := openTestStore(t)

	// Insertion order is the resolver's deterministic iteration order.
	for _, code := range []string{"TC3", "EX1-2", "IP5"} {
		if err := store.UpsertInstrument(Instrument{Code: code}); err != nil {
			t.Fatal(err)
		}
	}

	codes, err := store.InstrumentCodes()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"TC3", "EX1-2", "IP5"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes[%d] = %q, want %q", i, codes[i], want[i])
		}
	}
}

func TestStore_InstrumentByCode_Missing(t *testing.T) {
	store := openTestStore(t)
	_, found, err := store.InstrumentByCode("ZZZ")
	if err != nil {
		t.Fatalf("missing code should not error: %v", err)
	}
	if found {
		t.Error("found = true for missing code")
	}
}

func TestStore_Instruments(t *testing.T) {
	store := openTestStore(t)

	if err := store.UpsertInstrument(Instrument{Code: "EX1-2"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertInstrument(Instrument{Code: "IP5", Section: "2"}); err != nil {
		t.Fatal(err)
	}

	instruments, err := store.Instruments()
	if err != nil {
		t.Fatal(err)
	}
	if len(instruments) != 2 {
		t.Fatalf("got %d instruments, want 2", len(instruments))
	}
	if instruments[1].Code != "IP5" || instruments[1].Type != "plumb_line" {
		t.Errorf("instruments[1] = %+v", instruments[1])
	}
}

func TestStore_FeedsResolver(t *testing.T) {
	store := openTestStore(t)
	for _, code := range []string{"EX1-2", "EX2-4", "TC3"} {
		if err := store.UpsertInstrument(Instrument{Code: code}); err != nil {
			t.Fatal(err)
		}
	}

	codes, err := store.InstrumentCodes()
	if err != nil {
		t.Fatal(err)
	}

	r := NewResolver(Tables{})
	r.SetKnownInstruments(codes)

	if got := r.ResolvePointID("EX2"); got.DBCode != "EX2-4" {
		t.Errorf("fuzzy over store codes: DBCode = %q, want EX2-4", got.DBCode)
	}
}
