package align

import (
	"fmt"
	"sync"
	"testing"
)

func sampleInstruments() []AlignedInstrument {
	return []AlignedInstrument{
		{PointID: "EX1", DBCode: "EX1-2", World: Cartesian3{X: 1}},
		{PointID: "TC3", DBCode: "TC3", World: Cartesian3{X: 2}},
		{PointID: "ZZZ", World: Cartesian3{X: 3}}, // unlinked
	}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 {
		t.Error("new registry should be empty")
	}
	if r.Generation() != 0 {
		t.Error("new registry generation should be 0")
	}
	if _, ok := r.Get("EX1"); ok {
		t.Error("Get on empty registry should miss")
	}
}

func TestRegistry_Replace(t *testing.T) {
	r := NewRegistry()
	r.Replace(sampleInstruments())

	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
	if r.Generation() != 1 {
		t.Errorf("Generation = %d, want 1", r.Generation())
	}

	t.Run("lookup by point id", func(t *testing.T) {
		inst, ok := r.Get("EX1")
		if !ok {
			t.Fatal("EX1 not found")
		}
		if inst.DBCode != "EX1-2" {
			t.Errorf("DBCode = %q, want EX1-2", inst.DBCode)
		}
	})

	t.Run("lookup by db code", func(t *testing.T) {
		inst, ok := r.Get("EX1-2")
		if !ok {
			t.Fatal("EX1-2 not found")
		}
		if inst.PointID != "EX1" {
			t.Errorf("PointID = %q, want EX1", inst.PointID)
		}
	})

	t.Run("unlinked keyed by point id only", func(t *testing.T) {
		if _, ok := r.Get("ZZZ"); !ok {
			t.Error("unlinked point not found by point id")
		}
	})
}

func TestRegistry_ReplaceInvalidatesPrevious(t *testing.T) {
	r := NewRegistry()
	r.Replace(sampleInstruments())

	r.Replace([]AlignedInstrument{
		{PointID: "IP7", World: Cartesian3{X: 9}},
	})

	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if _, ok := r.Get("EX1"); ok {
		t.Error("stale entry survived Replace")
	}
	if _, ok := r.Get("IP7"); !ok {
		t.Error("fresh entry missing after Replace")
	}
	if r.Generation() != 2 {
		t.Errorf("Generation = %d, want 2", r.Generation())
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Replace(sampleInstruments())
	r.Clear()

	if r.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", r.Len())
	}
	if _, ok := r.Get("EX1"); ok {
		t.Error("entry survived Clear")
	}
	if r.Generation() != 2 {
		t.Errorf("Generation after Clear = %d, want 2", r.Generation())
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Replace(sampleInstruments())

	inst, _ := r.Get("EX1")
	inst.World.X = 99

	again, _ := r.Get("EX1")
	if again.World.X != 1 {
		t.Error("mutating a Get result leaked into the cache")
	}
}

func TestRegistry_AllPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Replace(sampleInstruments())

	all := r.All()
	want := []string{"EX1", "TC3", "ZZZ"}
	if len(all) != len(want) {
		t.Fatalf("All returned %d entries, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].PointID != id {
			t.Errorf("All[%d].PointID = %q, want %q", i, all[i].PointID, id)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	r.Replace(sampleInstruments())

	var wg sync.WaitGroup

	// Writers swap whole alignments while readers look up and iterate.
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Replace([]AlignedInstrument{
					{PointID: fmt.Sprintf("EX%d", n), World: Cartesian3{X: float64(i)}},
					{PointID: "TC3", DBCode: "TC3"},
				})
			}
		}(w)
	}

	for reader := 0; reader < 8; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r.Get("TC3")
				r.All()
				r.Len()
				r.Generation()
			}
		}()
	}

	wg.Wait()

	// Whatever interleaving won, the cache must be internally consistent.
	if r.Len() != 2 {
		t.Errorf("final Len = %d, want 2", r.Len())
	}
	if _, ok := r.Get("TC3"); !ok {
		t.Error("TC3 missing after concurrent churn")
	}
}
