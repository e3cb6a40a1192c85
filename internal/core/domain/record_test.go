package domain

import (
	"errors"
	"testing"
)

func TestIndexKindValid(t *testing.T) {
	if !IndexKindFlat.Valid() || !IndexKindHNSW.Valid() {
		t.Fatal("FLAT and HNSW must be valid index kinds")
	}
	if IndexKind("BOGUS").Valid() {
		t.Fatal("unregistered index kind must not be valid")
	}
}

func TestFilterEmpty(t *testing.T) {
	var f Filter
	if !f.Empty() {
		t.Fatal("zero-value filter should be empty")
	}
	f.Field = "color"
	if f.Empty() {
		t.Fatal("filter with a field set should not be empty")
	}
}

func TestFilterValidate(t *testing.T) {
	f := Filter{Field: "color", Op: "~=", Value: 1}
	if err := f.Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	f.Op = FilterEqual
	if err := f.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var empty Filter
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty filter should validate cleanly: %v", err)
	}
}
