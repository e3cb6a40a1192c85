// Package config defines the server configuration structure.
package config

import (
	"errors"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.PersistencePath == "" {
		return errors.New("storage.persistence_path is required")
	}

	if err := os.MkdirAll(cfg.PersistencePath, 0750); err != nil {
		return errors.New("cannot create persistence path: " + err.Error())
	}

	if cfg.Dim <= 0 {
		return errors.New("storage.dim must be positive")
	}

	if cfg.SnapshotKeep < 1 {
		return errors.New("storage.snapshot_keep must be at least 1")
	}

	if cfg.SnapshotInterval < 0 {
		return errors.New("storage.snapshot_interval must not be negative")
	}

	return nil
}
