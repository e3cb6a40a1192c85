package kvstore

import (
	"log/slog"
	"testing"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.GCInterval = "1h" // no auto GC churn during tests
	s, err := Open(cfg, slog.Default())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_PutGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, status, err := s.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if status != StatusOK {
		t.Fatalf("Get() status = %v, want StatusOK", status)
	}
	if string(got) != "v1" {
		t.Errorf("Get() value = %q, want %q", got, "v1")
	}
}

func TestBadgerStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	got, status, err := s.Get([]byte("missing"))
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if status != StatusNotFound {
		t.Fatalf("Get() status = %v, want StatusNotFound", status)
	}
	if got != nil {
		t.Errorf("Get() value = %v, want nil", got)
	}
}

func TestBadgerStore_Overwrite(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, status, err := s.Get([]byte("k"))
	if err != nil || status != StatusOK {
		t.Fatalf("Get() = %v, %v, %v", got, status, err)
	}
	if string(got) != "v2" {
		t.Errorf("Get() value = %q, want %q", got, "v2")
	}
}
