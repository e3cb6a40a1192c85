// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for vectordbd.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the HTTP front end.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
}

// StorageSection configures the engine and its persistence layout.
type StorageSection struct {
	// PersistencePath is the storage root (spec §4.5 layout).
	PersistencePath string `koanf:"persistence_path"`

	// Dim is the fixed vector dimension for every record in this database.
	Dim int `koanf:"dim"`

	// NumData is an advisory capacity hint passed to index kinds that
	// benefit from one (HNSW).
	NumData int `koanf:"num_data"`

	WALSyncInterval time.Duration `koanf:"wal_sync_interval"`

	// SnapshotInterval, when non-zero, enables periodic background
	// snapshotting (a supplemented feature; 0 disables it and leaves
	// snapshotting to an explicit admin call, matching the original).
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	SnapshotKeep int `koanf:"snapshot_keep"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
