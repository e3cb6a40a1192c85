package persistence

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinyvec/vectordb-go/internal/annindex"
	"github.com/tinyvec/vectordb-go/internal/bitmap"
	"github.com/tinyvec/vectordb-go/internal/core/domain"
	"github.com/tinyvec/vectordb-go/internal/storage/kvstore"
	"github.com/tinyvec/vectordb-go/internal/storage/wal"
)

const (
	externalPrefix = "external/data/"
	snapshotPrefix = "meta/snapshot/"
	bitmapKey      = snapshotPrefix + "bitmap"
	lastSnapshotIDKey = snapshotPrefix + "last_snapshot_id"

	walDirName      = "wal"
	kvDirName       = "kv_storage"
	snapshotDirName = "snapshot"

	// stagingDirName is the subdirectory under snapshotDirName that ANN
	// index files are written to before being renamed into place as a
	// single generation directory (spec's resolution #3: snapshot
	// atomicity).
	stagingDirName = ".staging"

	// Version is the WAL format version written into every frame (spec §6).
	Version uint8 = 1
)

// Manager composes the WAL, the KV store, and the snapshot directory
// (spec §4.5).
type Manager struct {
	mu sync.Mutex

	root         string
	snapshotDir  string
	wal          *wal.WAL
	store        kvstore.Store
	lastSnapshot uint64
	snapshotKeep int

	logger *slog.Logger
}

// Open initializes (creating directories as needed) the persistence
// manager rooted at root.
func Open(root string, logger *slog.Logger) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("persistence: root is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	walDir := filepath.Join(root, walDirName)
	kvDir := filepath.Join(root, kvDirName)
	snapshotDir := filepath.Join(root, snapshotDirName)

	if err := os.MkdirAll(snapshotDir, 0750); err != nil {
		return nil, fmt.Errorf("persistence: create snapshot dir: %w", err)
	}

	w, err := wal.Open(walDir, Version)
	if err != nil {
		return nil, fmt.Errorf("persistence: open wal: %w", err)
	}

	store, err := kvstore.Open(kvstore.DefaultConfig(kvDir), logger)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("persistence: open kv store: %w", err)
	}

	return &Manager{
		root:        root,
		snapshotDir: snapshotDir,
		wal:         w,
		store:       store,
		logger:      logger,
	}, nil
}

// Put writes value under key in the external (caller-facing) namespace.
func (m *Manager) Put(key string, value []byte) error {
	return m.store.Put([]byte(externalPrefix+key), value)
}

// Get looks up key in the external namespace.
func (m *Manager) Get(key string) ([]byte, kvstore.Status, error) {
	return m.store.Get([]byte(externalPrefix + key))
}

// SetWALSyncInterval configures batched fsync on the underlying WAL. See
// wal.WAL.SetSyncInterval.
func (m *Manager) SetWALSyncInterval(d time.Duration) {
	m.wal.SetSyncInterval(d)
}

// SetSnapshotKeep configures snapshot generation retention (spec's
// storage.snapshot_keep): SaveSnapshot prunes generation directories
// beyond the n most recent after each successful commit. n <= 0 disables
// pruning (unbounded retention), which is also the default if this is
// never called.
func (m *Manager) SetSnapshotKeep(n int) {
	m.mu.Lock()
	m.snapshotKeep = n
	m.mu.Unlock()
}

// generationDir returns the path a snapshot taken at logID commits its
// ANN index files to.
func (m *Manager) generationDir(logID uint64) string {
	return filepath.Join(m.snapshotDir, strconv.FormatUint(logID, 10))
}

func (m *Manager) stagingDir() string {
	return filepath.Join(m.snapshotDir, stagingDirName)
}

// WriteWAL appends a mutating operation to the WAL.
func (m *Manager) WriteWAL(op wal.OpType, data []byte) (uint64, error) {
	return m.wal.Append(op, data)
}

// ReadNextWAL returns the next WAL entry not yet covered by the last
// snapshot, skipping entries with log_id <= last_snapshot_id
// transparently. It returns io.EOF when the log is exhausted (spec's
// END), or a wrapped domain.ErrCorruptFrame on a structurally invalid
// frame (spec's ERROR).
func (m *Manager) ReadNextWAL() (wal.Entry, error) {
	for {
		entry, err := m.wal.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return wal.Entry{}, io.EOF
			}
			if errors.Is(err, wal.ErrCorrupted) {
				return wal.Entry{}, fmt.Errorf("%w: %v", domain.ErrCorruptFrame, err)
			}
			return wal.Entry{}, err
		}

		m.wal.SetLogID(entry.LogID)

		m.mu.Lock()
		lastSnapshot := m.lastSnapshot
		m.mu.Unlock()

		if entry.LogID <= lastSnapshot {
			continue
		}
		return entry, nil
	}
}

// SaveSnapshot commits the current ANN index set and bitmap state to
// disk, per spec §4.5's ordering and resolution #3's atomicity fix: ANN
// index files are written to a staging subdirectory, the bitmap blob is
// put to KV, the staging directory is renamed into place as a single new
// generation directory (the commit point for the ANN files), and only
// then is last_snapshot_id written to KV as the final, authoritative
// marker. Generation directories beyond storage.snapshot_keep are pruned
// afterward.
func (m *Manager) SaveSnapshot(indexSet *annindex.Set, bm *bitmap.Index) error {
	logID := m.wal.LogID()

	staging := m.stagingDir()
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("persistence: clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0750); err != nil {
		return fmt.Errorf("persistence: create staging dir: %w", err)
	}
	if err := indexSet.Save(staging); err != nil {
		return fmt.Errorf("persistence: save index set: %w", err)
	}

	if err := m.store.Put([]byte(bitmapKey), bm.Serialize()); err != nil {
		return fmt.Errorf("persistence: put bitmap blob: %w", err)
	}

	genDir := m.generationDir(logID)
	if err := os.RemoveAll(genDir); err != nil {
		return fmt.Errorf("persistence: clear stale generation dir: %w", err)
	}
	if err := os.Rename(staging, genDir); err != nil {
		return fmt.Errorf("persistence: commit snapshot generation: %w", err)
	}

	if err := m.store.Put([]byte(lastSnapshotIDKey), []byte(strconv.FormatUint(logID, 10))); err != nil {
		return fmt.Errorf("persistence: commit last_snapshot_id: %w", err)
	}

	m.mu.Lock()
	m.lastSnapshot = logID
	m.mu.Unlock()

	m.pruneOldGenerations(logID)

	m.logger.Info("snapshot saved", "last_snapshot_id", logID)
	return nil
}

// pruneOldGenerations removes snapshot generation directories beyond the
// most recent snapshotKeep, best effort: a failure to remove an old
// generation is logged, not returned, since current is already the
// durably committed snapshot regardless.
func (m *Manager) pruneOldGenerations(current uint64) {
	m.mu.Lock()
	keep := m.snapshotKeep
	m.mu.Unlock()
	if keep <= 0 {
		return
	}

	entries, err := os.ReadDir(m.snapshotDir)
	if err != nil {
		m.logger.Warn("list snapshot generations", "error", err)
		return
	}

	var gens []uint64
	for _, e := range entries {
		if !e.IsDir() || e.Name() == stagingDirName {
			continue
		}
		id, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		gens = append(gens, id)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] > gens[j] })

	if len(gens) <= keep {
		return
	}
	for _, id := range gens[keep:] {
		if err := os.RemoveAll(m.generationDir(id)); err != nil {
			m.logger.Warn("prune old snapshot generation", "generation", id, "error", err)
		}
	}
}

// LoadSnapshot restores the ANN index set and bitmap state from the most
// recent committed snapshot generation, per spec §4.5's order. A missing
// bitmap, last_snapshot_id key, or generation directory (fresh database)
// is not an error: the bitmap starts empty, last_snapshot_id starts at
// 0, and the ANN index set starts empty.
func (m *Manager) LoadSnapshot(indexSet *annindex.Set, bm *bitmap.Index) error {
	lastSnapshotData, status, err := m.store.Get([]byte(lastSnapshotIDKey))
	if err != nil {
		return fmt.Errorf("persistence: get last_snapshot_id: %w", err)
	}

	var lastSnapshot uint64
	if status == kvstore.StatusOK {
		lastSnapshot, err = strconv.ParseUint(string(lastSnapshotData), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: last_snapshot_id: %v", domain.ErrCorruptFrame, err)
		}
	}

	if err := indexSet.Load(m.generationDir(lastSnapshot)); err != nil {
		return fmt.Errorf("persistence: load index set: %w", err)
	}

	bitmapData, status, err := m.store.Get([]byte(bitmapKey))
	if err != nil {
		return fmt.Errorf("persistence: get bitmap blob: %w", err)
	}
	if status == kvstore.StatusOK {
		if err := bm.Parse(bitmapData); err != nil {
			return fmt.Errorf("persistence: parse bitmap blob: %w", err)
		}
	}

	m.mu.Lock()
	m.lastSnapshot = lastSnapshot
	m.mu.Unlock()

	m.wal.SetLogID(lastSnapshot)
	return nil
}

// LastSnapshotID returns the highest log_id covered by the most recently
// loaded or saved snapshot.
func (m *Manager) LastSnapshotID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSnapshot
}

// RegisterMetrics wires the underlying KV store's Prometheus gauges into
// registry, if the store supports it. Call once during startup.
func (m *Manager) RegisterMetrics(registry *prometheus.Registry) {
	if bs, ok := m.store.(*kvstore.BadgerStore); ok {
		bs.RegisterMetrics(registry)
	}
}

// Close releases the WAL file handle and the KV store.
func (m *Manager) Close() error {
	walErr := m.wal.Close()
	storeErr := m.store.Close()
	if walErr != nil {
		return walErr
	}
	return storeErr
}
