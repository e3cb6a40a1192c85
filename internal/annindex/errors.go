package annindex

import "errors"

var (
	errInvalidVector = errors.New("annindex: invalid vector")

	// ErrRemovalUnsupported is returned by Remove on index kinds whose
	// underlying storage cannot physically delete a vector (HNSW). Callers
	// must treat it as a soft no-op, not a failure (spec §4.4).
	ErrRemovalUnsupported = errors.New("annindex: removal unsupported for this kind")
)
