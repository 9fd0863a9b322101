package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnitTable_SetKeepsPosition(t *testing.T) {
	tbl := NewUnitTable()
	tbl.Set("a", &Unit{Name: "a"})
	tbl.Set("b", &Unit{Name: "b"})
	tbl.Set("a", &Unit{Name: "a", Body: "new"})

	if diff := cmp.Diff([]string{"a", "b"}, tbl.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	u, _ := tbl.Get("a")
	if u.Body != "new" {
		t.Errorf("expected replaced unit, got %+v", u)
	}
}

func TestUnitTable_DeleteThenSetAppends(t *testing.T) {
	tbl := NewUnitTable()
	for _, n := range []string{"a", "b", "c"} {
		tbl.Set(n, &Unit{Name: n})
	}

	if !tbl.Delete("a") {
		t.Fatal("expected a to be deleted")
	}
	if tbl.Delete("a") {
		t.Error("second delete should report false")
	}
	tbl.Set("a", &Unit{Name: "a"})

	if diff := cmp.Diff([]string{"b", "c", "a"}, tbl.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if tbl.Index("c") != 1 || tbl.Index("missing") != -1 {
		t.Errorf("unexpected index results")
	}
}

func TestUnitTable_DuplicateNamesShadow(t *testing.T) {
	tbl := NewUnitTable()
	first := &Unit{Name: "run", Body: "1"}
	second := &Unit{Name: "run", Body: "2"}

	tbl.insert(first)
	tbl.insert(&Unit{Name: "other"})
	tbl.insert(second)

	if tbl.Len() != 3 {
		t.Fatalf("expected 3 units, got %d", tbl.Len())
	}
	got, _ := tbl.Get("run")
	if got != second {
		t.Error("name should resolve to the later declaration")
	}
	if !first.Anonymous {
		t.Error("shadowed declaration should become anonymous")
	}

	units := tbl.Units()
	if units[0] != first || units[2] != second {
		t.Error("source order should be preserved")
	}
	if len(tbl.Named()) != 2 {
		t.Errorf("expected 2 named units, got %d", len(tbl.Named()))
	}
}

func TestUnitTable_CloneIsIndependent(t *testing.T) {
	tbl := NewUnitTable()
	tbl.Set("a", &Unit{Name: "a", Params: []string{"x"}})

	shallow := tbl.Clone()
	shallow.Delete("a")
	if !tbl.Has("a") {
		t.Error("deleting from a clone must not affect the source")
	}

	deep := tbl.deepClone()
	u, _ := deep.Get("a")
	u.Params[0] = "y"
	orig, _ := tbl.Get("a")
	if orig.Params[0] != "x" {
		t.Error("deep clone shares unit state")
	}
}
