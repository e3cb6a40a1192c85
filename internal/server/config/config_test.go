// Package config defines the server configuration structure.
package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}

	if cfg.Storage.PersistencePath != DefaultPersistencePath {
		t.Errorf("PersistencePath = %q, want %q", cfg.Storage.PersistencePath, DefaultPersistencePath)
	}
	if cfg.Storage.Dim != DefaultDim {
		t.Errorf("Dim = %d, want %d", cfg.Storage.Dim, DefaultDim)
	}
	if cfg.Storage.WALSyncInterval != DefaultWALSyncInterval {
		t.Errorf("WALSyncInterval = %v, want %v", cfg.Storage.WALSyncInterval, DefaultWALSyncInterval)
	}
	if cfg.Storage.SnapshotInterval != DefaultSnapshotInterval {
		t.Errorf("SnapshotInterval = %v, want %v", cfg.Storage.SnapshotInterval, DefaultSnapshotInterval)
	}
	if cfg.Storage.SnapshotKeep != DefaultSnapshotKeep {
		t.Errorf("SnapshotKeep = %d, want %d", cfg.Storage.SnapshotKeep, DefaultSnapshotKeep)
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}
}

func TestVerify_ValidConfig(t *testing.T) {
	dir := t.TempDir()

	cfg := &ServerConfig{
		Server:  ServerSection{HTTP: HTTPConfig{Addr: "127.0.0.1:5080"}},
		Storage: StorageSection{PersistencePath: dir, Dim: 128, WALSyncInterval: 100 * time.Millisecond, SnapshotKeep: 3},
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_EmptyPersistencePath(t *testing.T) {
	cfg := &ServerConfig{
		Server:  ServerSection{HTTP: HTTPConfig{Addr: "127.0.0.1:5080"}},
		Storage: StorageSection{PersistencePath: "", Dim: 128, SnapshotKeep: 3},
	}

	if err := Verify(cfg); err == nil {
		t.Error("Verify() with empty persistence_path succeeded, want error")
	}
}

func TestVerify_InvalidDim(t *testing.T) {
	dir := t.TempDir()
	cfg := &ServerConfig{
		Server:  ServerSection{HTTP: HTTPConfig{Addr: "127.0.0.1:5080"}},
		Storage: StorageSection{PersistencePath: dir, Dim: 0, SnapshotKeep: 3},
	}

	if err := Verify(cfg); err == nil {
		t.Error("Verify() with dim=0 succeeded, want error")
	}
}

func TestVerify_InvalidSnapshotKeep(t *testing.T) {
	dir := t.TempDir()
	cfg := &ServerConfig{
		Server:  ServerSection{HTTP: HTTPConfig{Addr: "127.0.0.1:5080"}},
		Storage: StorageSection{PersistencePath: dir, Dim: 128, SnapshotKeep: 0},
	}

	if err := Verify(cfg); err == nil {
		t.Error("Verify() with snapshot_keep=0 succeeded, want error")
	}
}

func TestVerify_EmptyHTTPAddr(t *testing.T) {
	dir := t.TempDir()
	cfg := &ServerConfig{
		Storage: StorageSection{PersistencePath: dir, Dim: 128, SnapshotKeep: 3},
	}

	if err := Verify(cfg); err == nil {
		t.Error("Verify() with empty http addr succeeded, want error")
	}
}

func TestVerify_CreatesPersistencePath(t *testing.T) {
	dir := t.TempDir()
	newDir := dir + "/subdir/data"

	cfg := &ServerConfig{
		Server:  ServerSection{HTTP: HTTPConfig{Addr: "127.0.0.1:5080"}},
		Storage: StorageSection{PersistencePath: newDir, Dim: 128, SnapshotKeep: 1},
	}

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestConstants(t *testing.T) {
	if DefaultHTTPAddr != "127.0.0.1:5080" {
		t.Errorf("DefaultHTTPAddr = %q", DefaultHTTPAddr)
	}
	if DefaultLogLevel != "info" {
		t.Errorf("DefaultLogLevel = %q", DefaultLogLevel)
	}
	if DefaultLogFormat != "json" {
		t.Errorf("DefaultLogFormat = %q", DefaultLogFormat)
	}
}
