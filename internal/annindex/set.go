package annindex

import (
	"fmt"
	"path/filepath"

	"github.com/tinyvec/vectordb-go/internal/core/domain"
)

// Set is the registry of ANN index instances keyed by kind, as described
// in spec §4.4. A fresh Set registers FLAT and HNSW at construction; the
// registry itself has no concept of "unregistered" kinds appearing later
// (spec's extensibility note is about adding new kinds to this
// constructor, not runtime registration).
type Set struct {
	dim       int
	instances map[domain.IndexKind]Instance
}

// NewSet builds a Set with FLAT and HNSW instances of the given dimension.
func NewSet(dim int) (*Set, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dim must be positive", domain.ErrInvalidArgument)
	}

	flat, err := newFlat(dim)
	if err != nil {
		return nil, err
	}
	hnsw, err := newHNSW(dim)
	if err != nil {
		flat.Close()
		return nil, err
	}

	return &Set{
		dim: dim,
		instances: map[domain.IndexKind]Instance{
			domain.IndexKindFlat: flat,
			domain.IndexKindHNSW: newTombstoneIndex(hnsw),
		},
	}, nil
}

// Get resolves kind to its instance, or ErrUnknownKind.
func (s *Set) Get(kind domain.IndexKind) (Instance, error) {
	inst, ok := s.instances[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return inst, nil
}

// Save persists every registered instance to dir/<kind>.index.
func (s *Set) Save(dir string) error {
	for kind, inst := range s.instances {
		path := filepath.Join(dir, string(kind)+".index")
		if err := inst.Save(path); err != nil {
			return fmt.Errorf("annindex: save %s: %w", kind, err)
		}
	}
	return nil
}

// Load restores every registered instance from dir/<kind>.index. A
// missing per-kind file is not an error (fresh start for that kind).
func (s *Set) Load(dir string) error {
	for kind, inst := range s.instances {
		path := filepath.Join(dir, string(kind)+".index")
		if err := inst.Load(path); err != nil {
			return fmt.Errorf("annindex: load %s: %w", kind, err)
		}
	}
	return nil
}

// Size reports the vector count of the named kind's instance, or 0 if the
// kind is unregistered.
func (s *Set) Size(kind domain.IndexKind) int64 {
	inst, ok := s.instances[kind]
	if !ok {
		return 0
	}
	return inst.Size()
}

// Close releases every registered instance.
func (s *Set) Close() error {
	var firstErr error
	for _, inst := range s.instances {
		if err := inst.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
