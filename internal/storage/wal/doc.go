// Package wal provides the write-ahead log for vectordb-go.
//
// The WAL is a single append-only file, wal_dir/log.log, of mutating
// operations indexed by a strictly monotonically increasing log_id. It
// supports append+flush and sequential replay, and knows how to skip
// entries at or before a recorded last-snapshotted log_id.
//
// Frame format (little-endian, fixed-width fields except the payload):
//
//	[total_size:8][log_id:8][version:1][op:1][data_size:8][data:data_size]
//
// total_size covers everything after itself: 8 (log_id) + 1 (version) +
// 1 (op) + 8 (data_size) + data_size. The redundant framing lets a reader
// that hits a truncated tail after total_size stop cleanly instead of
// reading past the end of the file.
//
// Retention: entries with log_id <= last_snapshot_id are skipped at
// replay but not physically truncated; compaction is future work.
//
// fsync cadence is configurable via SetSyncInterval (storage.wal_sync_interval):
// zero fsyncs every Append, non-zero coalesces fsyncs to a background
// loop running at that period.
package wal
