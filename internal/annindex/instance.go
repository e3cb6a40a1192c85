package annindex

import (
	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/tinyvec/vectordb-go/internal/core/domain"
)

// Instance is the per-kind ANN index contract (spec §4.4).
type Instance interface {
	// Insert adds or, for kinds that support it, overwrites (id, vector).
	Insert(id int64, vector []float32) error

	// Remove removes ids. Kinds without removal support return
	// ErrRemovalUnsupported (this package's sentinel); callers must treat
	// that as a soft no-op, not a failure.
	Remove(ids []int64) error

	// Search runs a batch of numQueries flat-packed query vectors (length
	// numQueries*dim) and returns the top k ids/distances per query in
	// row-major order, ascending distance, with unfilled slots reported as
	// id -1. allowList, if non-nil, restricts candidates to member ids.
	Search(queries []float32, numQueries, k int, allowList *roaring64.Bitmap) ([]int64, []float32, error)

	// Save atomically (from the caller's standpoint) persists the index to
	// a single file at path.
	Save(path string) error

	// Load restores from path. A missing file is not an error: Load
	// succeeds silently and the index starts empty.
	Load(path string) error

	// Close releases the underlying native resources.
	Close() error

	// Size reports the number of vectors currently addressable, excluding
	// any logically tombstoned ids.
	Size() int64
}

var (
	// ErrUnknownKind is returned when a caller names an index kind the set
	// has no instance for.
	ErrUnknownKind = domain.NewDomainError("VDB-ARG-4001", "unknown index kind")
)
