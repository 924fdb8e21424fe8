package flowid

import "testing"

func TestAllocateOrReuseAssignsOnFirstUse(t *testing.T) {
	a := New()
	var cell uint16
	id := a.AllocateOrReuse(&cell)
	if id == 0 {
		t.Fatal("expected a non-zero allocated id")
	}
	if cell != id {
		t.Fatalf("expected the cell to be updated with the allocated id, got %d want %d", cell, id)
	}
}

func TestAllocateOrReuseReusesExistingCellValue(t *testing.T) {
	a := New()
	var cell uint16
	first := a.AllocateOrReuse(&cell)
	second := a.AllocateOrReuse(&cell)
	if first != second {
		t.Fatalf("expected repeated calls on the same cell to reuse the id, got %d then %d", first, second)
	}
}

func TestAllocateOrReuseNilCellAlwaysAllocatesFresh(t *testing.T) {
	a := New()
	first := a.AllocateOrReuse(nil)
	second := a.AllocateOrReuse(nil)
	if first == second {
		t.Fatal("expected a nil cell to allocate a fresh id every call")
	}
}

func TestAllocateNeverReturnsReservedZero(t *testing.T) {
	a := New()
	for i := 0; i < 5; i++ {
		if id := a.AllocateOrReuse(nil); id == 0 {
			t.Fatal("allocated id should never be the reserved 0 sentinel")
		}
	}
}

func TestDistinctCellsGetDistinctIDs(t *testing.T) {
	a := New()
	var x, y uint16
	ix := a.AllocateOrReuse(&x)
	iy := a.AllocateOrReuse(&y)
	if ix == iy {
		t.Fatal("expected two distinct cells to receive distinct ids")
	}
}
