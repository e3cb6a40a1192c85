package annindex

import (
	"testing"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// fakeInstance is a minimal in-memory Instance used to test the
// tombstone decorator without linking against the FAISS native library.
type fakeInstance struct {
	vectors map[int64][]float32
}

func newFakeInstance() *fakeInstance {
	return &fakeInstance{vectors: make(map[int64][]float32)}
}

func (f *fakeInstance) Insert(id int64, vector []float32) error {
	f.vectors[id] = vector
	return nil
}

func (f *fakeInstance) Remove(ids []int64) error {
	return ErrRemovalUnsupported
}

// Search returns every id the allowList permits (or every id if nil), in
// ascending id order, ignoring actual vector distance (irrelevant to the
// tombstone-filtering behavior under test).
func (f *fakeInstance) Search(queries []float32, numQueries, k int, allowList *roaring64.Bitmap) ([]int64, []float32, error) {
	var candidates []int64
	for id := range f.vectors {
		if allowList != nil && !allowList.Contains(uint64(id)) {
			continue
		}
		candidates = append(candidates, id)
	}

	ids := make([]int64, numQueries*k)
	dists := make([]float32, numQueries*k)
	for q := 0; q < numQueries; q++ {
		filled := 0
		for _, id := range candidates {
			if filled >= k {
				break
			}
			ids[q*k+filled] = id
			dists[q*k+filled] = float32(filled)
			filled++
		}
		for ; filled < k; filled++ {
			ids[q*k+filled] = -1
		}
	}
	return ids, dists, nil
}

func (f *fakeInstance) Save(path string) error { return nil }
func (f *fakeInstance) Load(path string) error { return nil }
func (f *fakeInstance) Close() error           { return nil }
func (f *fakeInstance) Size() int64            { return int64(len(f.vectors)) }

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestTombstoneRemoveExcludesFromSearch(t *testing.T) {
	inner := newFakeInstance()
	ti := newTombstoneIndex(inner)

	ti.Insert(1, []float32{0, 0})
	ti.Insert(2, []float32{0, 0})
	ti.Insert(3, []float32{0, 0})

	if err := ti.Remove([]int64{2}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	ids, _, err := ti.Search([]float32{0, 0}, 1, 3, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if contains(ids, 2) {
		t.Fatalf("tombstoned id 2 present in results: %v", ids)
	}
	if !contains(ids, 1) || !contains(ids, 3) {
		t.Fatalf("expected ids 1 and 3 present, got %v", ids)
	}
}

func TestTombstoneReinsertClears(t *testing.T) {
	inner := newFakeInstance()
	ti := newTombstoneIndex(inner)

	ti.Insert(1, []float32{0, 0})
	ti.Remove([]int64{1})
	ti.Insert(1, []float32{0, 0})

	ids, _, err := ti.Search([]float32{0, 0}, 1, 1, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !contains(ids, 1) {
		t.Fatalf("re-inserted id 1 not present after clearing tombstone: %v", ids)
	}
}

func TestTombstoneWithAllowList(t *testing.T) {
	inner := newFakeInstance()
	ti := newTombstoneIndex(inner)

	ti.Insert(1, []float32{0, 0})
	ti.Insert(2, []float32{0, 0})
	ti.Remove([]int64{1})

	allow := roaring64.New()
	allow.Add(1)
	allow.Add(2)

	ids, _, err := ti.Search([]float32{0, 0}, 1, 2, allow)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if contains(ids, 1) {
		t.Fatalf("tombstoned id 1 present despite allow-list membership: %v", ids)
	}
	if !contains(ids, 2) {
		t.Fatalf("expected id 2 present, got %v", ids)
	}
}
