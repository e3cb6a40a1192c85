// Package persistence implements the persistence manager (spec §4.5): the
// component that owns the WAL file, the embedded KV store, and the
// on-disk snapshot directory, and mediates all three under the
// invariants in spec §3.
//
// Directory layout under a root P:
//
//	P/wal/log.log
//	P/kv_storage/...                      (embedded KV files)
//	P/snapshot/.staging/<kind>.index       (scratch area for an in-progress save)
//	P/snapshot/<log_id>/<kind>.index       (one committed generation per snapshot,
//	                                        plus <kind>.index.tombstones)
//
// KV key namespaces: caller payloads live under external/data/<id>;
// meta/snapshot/bitmap and meta/snapshot/last_snapshot_id are reserved for
// the manager itself.
//
// Snapshot commit ordering resolves spec §9's atomicity note (resolution
// #3) with a whole-directory staging swap: ANN index files are written
// into P/snapshot/.staging, the bitmap blob is put to KV, then the
// staging directory is renamed to P/snapshot/<log_id> as a single
// os.Rename — the commit point for the ANN files themselves. Only after
// that does last_snapshot_id get written to KV, the sole authoritative
// commit marker for the snapshot as a whole. A crash before the rename
// leaves a stale, ignored staging directory; a crash after the rename but
// before last_snapshot_id is written leaves a committed generation
// directory that LoadSnapshot simply won't point at yet, and SaveSnapshot
// overwrites it cleanly next time. The bitmap blob is not part of that
// marker: it lives under a single KV key that is overwritten before the
// rename, so after a crash at either point LoadSnapshot pairs the previous
// generation's ANN files with the newer bitmap blob; WAL replay from the
// previous last_snapshot_id then re-applies the entries in between. Generation directories
// beyond storage.snapshot_keep are pruned after each successful commit.
package persistence
