// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr  = "127.0.0.1:5080"
	DefaultHTTPSAddr = "127.0.0.1:5443"

	DefaultPersistencePath  = "/var/lib/vectordbd/data"
	DefaultDim              = 128
	DefaultNumData          = 0
	DefaultWALSyncInterval  = 100 * time.Millisecond
	DefaultSnapshotInterval = 0 // disabled: snapshot only on explicit request
	DefaultSnapshotKeep     = 3

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			PersistencePath:  DefaultPersistencePath,
			Dim:              DefaultDim,
			NumData:          DefaultNumData,
			WALSyncInterval:  DefaultWALSyncInterval,
			SnapshotInterval: DefaultSnapshotInterval,
			SnapshotKeep:     DefaultSnapshotKeep,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
