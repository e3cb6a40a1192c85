package annindex

import (
	"fmt"
	"os"
	"sync"

	"github.com/DataIntelligenceCrew/go-faiss"
	"github.com/RoaringBitmap/roaring/roaring64"
)

// faissIndex wraps a FAISS index factory string behind the Instance
// contract. Every instance is built as "IDMap,<desc>" so external i64 ids
// address rows directly.
type faissIndex struct {
	mu    sync.RWMutex
	dim   int
	index faiss.Index

	// removable is true for kinds whose underlying FAISS index supports
	// RemoveIDs (FLAT). HNSW reports removal unsupported instead.
	removable bool
}

func newFaissIndex(dim int, factoryDesc string, removable bool) (*faissIndex, error) {
	idx, err := faiss.IndexFactory(dim, "IDMap,"+factoryDesc, faiss.MetricL2)
	if err != nil {
		return nil, fmt.Errorf("annindex: create %s index: %w", factoryDesc, err)
	}
	return &faissIndex{dim: dim, index: idx, removable: removable}, nil
}

// newFlat builds the FLAT index kind: exhaustive L2, supports removal.
func newFlat(dim int) (*faissIndex, error) {
	return newFaissIndex(dim, "Flat", true)
}

// newHNSW builds the raw HNSW FAISS index (without the tombstone
// decorator; Set wraps it separately since removal semantics live above
// this layer).
func newHNSW(dim int) (*faissIndex, error) {
	return newFaissIndex(dim, "HNSW32", false)
}

func (f *faissIndex) Insert(id int64, vector []float32) error {
	if len(vector) != f.dim {
		return fmt.Errorf("%w: vector length %d, want %d", errInvalidVector, len(vector), f.dim)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removable {
		sel, err := faiss.NewIDSelectorBatch([]int64{id})
		if err == nil {
			f.index.RemoveIDs(sel)
			sel.Delete()
		}
	}

	return f.index.AddWithIDs(vector, []int64{id})
}

func (f *faissIndex) Remove(ids []int64) error {
	if !f.removable {
		return ErrRemovalUnsupported
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sel, err := faiss.NewIDSelectorBatch(ids)
	if err != nil {
		return fmt.Errorf("annindex: build id selector: %w", err)
	}
	defer sel.Delete()

	_, err = f.index.RemoveIDs(sel)
	return err
}

func (f *faissIndex) Search(queries []float32, numQueries, k int, allowList *roaring64.Bitmap) ([]int64, []float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if allowList == nil {
		dists, ids, err := f.index.Search(queries, int64(k))
		return ids, dists, err
	}

	// FAISS has no native allow-list parameter on this binding; over-fetch
	// against the full index and filter client-side, backfilling from
	// further candidates isn't available through this API so a wide k is
	// used up front.
	wideK := k
	if n := int(f.index.Ntotal()); n > wideK {
		wideK = n
	}
	if wideK <= 0 {
		wideK = k
	}

	dists, ids, err := f.index.Search(queries, int64(wideK))
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
			if !allowList.Contains(uint64(id)) {
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

func (f *faissIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tmp := path + ".tmp"
	if err := faiss.WriteIndex(f.index, tmp); err != nil {
		return fmt.Errorf("annindex: write index: %w", err)
	}
	return os.Rename(tmp, path)
}

func (f *faissIndex) Load(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	idx, err := faiss.ReadIndex(path, 0)
	if err != nil {
		return fmt.Errorf("annindex: read index: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.index.Delete()
	f.index = idx
	return nil
}

func (f *faissIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index.Delete()
	return nil
}

func (f *faissIndex) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.index.Ntotal()
}
