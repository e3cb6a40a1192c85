package annindex

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// tombstoneIndex decorates an Instance that cannot physically remove
// vectors (HNSW) with a roaring bitmap of logically-removed ids. Every
// search excludes tombstoned ids from its results; re-inserting an id
// clears its tombstone. The bitmap is persisted alongside the wrapped
// index's own file, at <path>.tombstones, so Save/Load stay paired.
//
// This resolves the HNSW-deletion design note (spec §9): Remove no longer
// silently does nothing from the caller's perspective, it just doesn't
// touch the underlying graph.
type tombstoneIndex struct {
	inner Instance

	mu         sync.RWMutex
	tombstones *roaring64.Bitmap
}

func newTombstoneIndex(inner Instance) *tombstoneIndex {
	return &tombstoneIndex{inner: inner, tombstones: roaring64.New()}
}

func (t *tombstoneIndex) Insert(id int64, vector []float32) error {
	if err := t.inner.Insert(id, vector); err != nil {
		return err
	}
	t.mu.Lock()
	t.tombstones.Remove(uint64(id))
	t.mu.Unlock()
	return nil
}

// Remove marks ids as logically deleted. It never touches the wrapped
// index and never fails: this is exactly the soft no-op spec §4.4
// requires for kinds without native removal, made observable to search.
func (t *tombstoneIndex) Remove(ids []int64) error {
	t.mu.Lock()
	for _, id := range ids {
		t.tombstones.Add(uint64(id))
	}
	t.mu.Unlock()
	return nil
}

func (t *tombstoneIndex) Search(queries []float32, numQueries, k int, allowList *roaring64.Bitmap) ([]int64, []float32, error) {
	t.mu.RLock()
	tombstones := t.tombstones.Clone()
	t.mu.RUnlock()

	if tombstones.IsEmpty() {
		return t.inner.Search(queries, numQueries, k, allowList)
	}

	effective := tombstones
	if allowList != nil {
		effective = allowList.Clone()
		effective.AndNot(tombstones)
	} else {
		// No caller allow-list: search still needs an allow-list to exclude
		// tombstones, so build the universal complement is not possible
		// without Ntotal bounds; instead over-fetch and filter client-side.
		return t.searchExcluding(queries, numQueries, k, tombstones)
	}

	return t.inner.Search(queries, numQueries, k, effective)
}

// searchExcluding handles the no-allow-list case: it asks the wrapped
// index for more candidates than k and drops any that are tombstoned,
// since passing a synthetic "allow everything except tombstones" bitmap
// would require knowing every live id up front.
func (t *tombstoneIndex) searchExcluding(queries []float32, numQueries, k int, tombstones *roaring64.Bitmap) ([]int64, []float32, error) {
	wideK := k + int(tombstones.GetCardinality())
	ids, dists, err := t.inner.Search(queries, numQueries, wideK, nil)
	if err != nil {
		return nil, nil, err
	}

	outIDs := make([]int64, numQueries*k)
	outDists := make([]float32, numQueries*k)
	for q := 0; q < numQueries; q++ {
		filled := 0
		for col := 0; col < wideK && filled < k; col++ {
			idx := q*wideK + col
			id := ids[idx]
			if id < 0 {
				break
			}
			if tombstones.Contains(uint64(id)) {
				continue
			}
			out := q*k + filled
			outIDs[out] = id
			outDists[out] = dists[idx]
			filled++
		}
		for ; filled < k; filled++ {
			outIDs[q*k+filled] = -1
		}
	}
	return outIDs, outDists, nil
}

func (t *tombstoneIndex) Save(path string) error {
	if err := t.inner.Save(path); err != nil {
		return err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var buf bytes.Buffer
	if _, err := t.tombstones.WriteTo(&buf); err != nil {
		return fmt.Errorf("annindex: serialize tombstones: %w", err)
	}

	tmp := tombstonePath(path) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("annindex: write tombstones: %w", err)
	}
	return os.Rename(tmp, tombstonePath(path))
}

func (t *tombstoneIndex) Load(path string) error {
	if err := t.inner.Load(path); err != nil {
		return err
	}

	data, err := os.ReadFile(tombstonePath(path))
	if os.IsNotExist(err) {
		t.mu.Lock()
		t.tombstones = roaring64.New()
		t.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("annindex: read tombstones: %w", err)
	}

	bm := roaring64.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("annindex: decode tombstones: %w", err)
	}

	t.mu.Lock()
	t.tombstones = bm
	t.mu.Unlock()
	return nil
}

func (t *tombstoneIndex) Close() error {
	return t.inner.Close()
}

func (t *tombstoneIndex) Size() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inner.Size() - int64(t.tombstones.GetCardinality())
}

func tombstonePath(indexPath string) string {
	return indexPath + ".tombstones"
}
