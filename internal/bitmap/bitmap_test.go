package bitmap

import (
	"testing"

	"github.com/tinyvec/vectordb-go/internal/core/domain"
)

func TestUpdateAndQuery(t *testing.T) {
	ix := New()
	ix.Update(1, "color", 1, nil)
	ix.Update(2, "color", 1, nil)
	ix.Update(3, "color", 2, nil)

	got := ix.Query("color", domain.FilterEqual, 1)
	if !got.Contains(1) || !got.Contains(2) || got.Contains(3) {
		t.Fatalf("color=1 = %v, want {1,2}", got.ToArray())
	}

	got = ix.Query("color", domain.FilterNotEqual, 1)
	if got.Contains(1) || got.Contains(2) || !got.Contains(3) {
		t.Fatalf("color!=1 = %v, want {3}", got.ToArray())
	}
}

func TestUpdateReplaceDisjoint(t *testing.T) {
	ix := New()
	ix.Update(5, "color", 1, nil)

	old := int64(1)
	ix.Update(5, "color", 2, &old)

	if ix.Query("color", domain.FilterEqual, 1).Contains(5) {
		t.Fatal("id 5 still present in color=1 after replace")
	}
	if !ix.Query("color", domain.FilterEqual, 2).Contains(5) {
		t.Fatal("id 5 missing from color=2 after replace")
	}
}

func TestQueryUnknownField(t *testing.T) {
	ix := New()
	got := ix.Query("nonexistent", domain.FilterEqual, 1)
	if !got.IsEmpty() {
		t.Fatalf("unknown field query = %v, want empty", got.ToArray())
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	ix := New()
	ix.Update(1, "color", 1, nil)
	ix.Update(2, "color", 1, nil)
	ix.Update(3, "color", 2, nil)
	ix.Update(10, "size", 100, nil)

	data := ix.Serialize()

	ix2 := New()
	if err := ix2.Parse(data); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := ix2.Query("color", domain.FilterEqual, 1)
	if !got.Contains(1) || !got.Contains(2) {
		t.Fatalf("color=1 after round trip = %v, want {1,2}", got.ToArray())
	}
	got = ix2.Query("size", domain.FilterEqual, 100)
	if !got.Contains(10) {
		t.Fatalf("size=100 after round trip = %v, want {10}", got.ToArray())
	}
}

func TestSerializeSkipsEmptyCells(t *testing.T) {
	ix := New()
	ix.Update(1, "color", 1, nil)
	old := int64(1)
	ix.Update(1, "color", 2, &old) // color=1 cell now empty

	data := ix.Serialize()

	ix2 := New()
	if err := ix2.Parse(data); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !ix2.Query("color", domain.FilterEqual, 1).IsEmpty() {
		t.Fatal("empty cell was serialized")
	}
}

func TestParseCorruptData(t *testing.T) {
	ix := New()
	if err := ix.Parse([]byte{1, 2, 3}); err == nil {
		t.Fatal("Parse() on corrupt data succeeded, want error")
	}
}
