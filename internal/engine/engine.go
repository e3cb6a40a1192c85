package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinyvec/vectordb-go/internal/annindex"
	"github.com/tinyvec/vectordb-go/internal/bitmap"
	"github.com/tinyvec/vectordb-go/internal/core/domain"
	"github.com/tinyvec/vectordb-go/internal/storage/kvstore"
	"github.com/tinyvec/vectordb-go/internal/storage/persistence"
	"github.com/tinyvec/vectordb-go/internal/storage/wal"
	"github.com/tinyvec/vectordb-go/internal/telemetry/metric"
)

// Options configures Init.
type Options struct {
	// PersistencePath is the storage root (spec §4.5 layout).
	PersistencePath string

	// Dim is the configured vector dimension; every upserted vector and
	// query must match it exactly.
	Dim int

	// NumData is a capacity hint for index kinds that benefit from one
	// (HNSW); purely advisory.
	NumData int

	// WALSyncInterval configures batched fsync on the WAL (spec's
	// storage.wal_sync_interval); zero fsyncs every Append. See
	// wal.WAL.SetSyncInterval.
	WALSyncInterval time.Duration

	// SnapshotKeep configures snapshot generation retention (spec's
	// storage.snapshot_keep); zero or negative disables pruning. See
	// persistence.Manager.SetSnapshotKeep.
	SnapshotKeep int

	Logger *slog.Logger
}

// Engine is the top-level coordinator (spec §4.6).
type Engine struct {
	mu sync.RWMutex

	dim         int
	persistence *persistence.Manager
	bitmap      *bitmap.Index
	indexSet    *annindex.Set
	logger      *slog.Logger
	metrics     *metric.Registry
}

// Init opens the persistence manager and registers FLAT and HNSW index
// instances of the configured dimension. It does not recover prior
// state; call Reload for that.
func Init(opts Options) (*Engine, error) {
	if opts.Dim <= 0 {
		return nil, fmt.Errorf("%w: dim must be positive", domain.ErrInvalidArgument)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mgr, err := persistence.Open(opts.PersistencePath, logger)
	if err != nil {
		return nil, err
	}
	if opts.WALSyncInterval > 0 {
		mgr.SetWALSyncInterval(opts.WALSyncInterval)
	}
	if opts.SnapshotKeep > 0 {
		mgr.SetSnapshotKeep(opts.SnapshotKeep)
	}

	indexSet, err := annindex.NewSet(opts.Dim)
	if err != nil {
		mgr.Close()
		return nil, err
	}

	return &Engine{
		dim:         opts.Dim,
		persistence: mgr,
		bitmap:      bitmap.New(),
		indexSet:    indexSet,
		logger:      logger,
	}, nil
}

// IndexSize reports the vector count of the named index kind. It satisfies
// metric.StatsSource without this package importing metric.
func (e *Engine) IndexSize(kind string) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.indexSet.Size(domain.IndexKind(kind))
}

// BitmapFields reports the number of distinct attribute fields tracked by
// the bitmap index. It satisfies metric.StatsSource.
func (e *Engine) BitmapFields() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bitmap.FieldCount()
}

// RegisterMetrics wires the persistence layer's Prometheus gauges into
// registry, if its KV store supports it. Call once during startup.
func (e *Engine) RegisterMetrics(registry *prometheus.Registry) {
	e.persistence.RegisterMetrics(registry)
}

// SetMetrics wires m's counters and histograms into Upsert, Search, and
// SaveSnapshot, which increment/observe them on every call from then on.
// Call once during startup; if never called, those calls simply don't
// record anything.
func (e *Engine) SetMetrics(m *metric.Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Close releases the persistence manager and ANN index set.
func (e *Engine) Close() error {
	indexErr := e.indexSet.Close()
	mgrErr := e.persistence.Close()
	if mgrErr != nil {
		return mgrErr
	}
	return indexErr
}

// UpsertRequest is the input to Upsert.
type UpsertRequest struct {
	ID            int64
	IndexKind     domain.IndexKind
	Vector        []float32
	ScalarPayload []byte
	Fields        map[string]int64
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Upsert writes a WAL entry for the request, then applies it: resolves
// the target index, removes any prior vector for this id, maintains
// bitmap disjointness against the previously stored envelope, stores the
// new envelope, and inserts into the index (spec §4.6).
func (e *Engine) Upsert(req UpsertRequest) error {
	if err := e.validateUpsert(req); err != nil {
		return err
	}

	envelope := domain.UpsertEnvelope{
		ID:            req.ID,
		IndexKind:     req.IndexKind,
		Vector:        req.Vector,
		ScalarPayload: req.ScalarPayload,
		Fields:        req.Fields,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("engine: encode upsert envelope: %w", err)
	}

	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.persistence.WriteWAL(wal.OpUpsert, data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	if e.metrics != nil {
		e.metrics.WALAppendsTotal.Inc()
		e.metrics.WALBytesTotal.Add(float64(len(data)))
	}

	if err := e.applyUpsert(envelope); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.UpsertsTotal.Inc()
		e.metrics.UpsertDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (e *Engine) validateUpsert(req UpsertRequest) error {
	if !req.IndexKind.Valid() {
		return fmt.Errorf("%w: unknown index kind %q", domain.ErrInvalidArgument, req.IndexKind)
	}
	if len(req.Vector) != e.dim {
		return fmt.Errorf("%w: vector length %d, want %d", domain.ErrInvalidArgument, len(req.Vector), e.dim)
	}
	return nil
}

// applyUpsert performs the mutation without writing a WAL entry; Upsert
// calls it after its own WAL write, and Reload calls it directly while
// replaying entries that are already durable.
func (e *Engine) applyUpsert(envelope domain.UpsertEnvelope) error {
	inst, err := e.indexSet.Get(envelope.IndexKind)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	key := idKey(envelope.ID)
	existing, status, err := e.persistence.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}

	var prev *domain.UpsertEnvelope
	if status == kvstore.StatusOK {
		if err := inst.Remove([]int64{envelope.ID}); err != nil {
			// RemovalUnsupported is a soft no-op (spec §4.4); anything else is
			// a genuine failure.
			if !errors.Is(err, annindex.ErrRemovalUnsupported) {
				return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
			}
		}

		var p domain.UpsertEnvelope
		if err := json.Unmarshal(existing, &p); err != nil {
			return fmt.Errorf("%w: decode previous envelope: %v", domain.ErrCorruptFrame, err)
		}
		prev = &p
	}

	for field, value := range envelope.Fields {
		var oldValue *int64
		if prev != nil {
			if v, ok := prev.Fields[field]; ok {
				old := v
				oldValue = &old
			}
		}
		e.bitmap.Update(envelope.ID, field, value, oldValue)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("engine: encode envelope: %w", err)
	}
	if err := e.persistence.Put(key, data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}

	if err := inst.Insert(envelope.ID, envelope.Vector); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	return nil
}

// SearchRequest is the input to Search.
type SearchRequest struct {
	IndexKind  domain.IndexKind
	Query      []float32 // flat buffer, length NumQueries*dim
	NumQueries int
	K          int
	Filter     domain.Filter // zero value: no filter
}

// Search runs an ANN search, optionally narrowed by a scalar-attribute
// filter. Results include FAISS's -1 sentinel for unfilled slots; callers
// outside the engine boundary are responsible for stripping them (spec
// §4.6).
func (e *Engine) Search(req SearchRequest) ([]int64, []float32, error) {
	if req.K <= 0 {
		return nil, nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidArgument)
	}
	if req.NumQueries <= 0 || len(req.Query) != req.NumQueries*e.dim {
		return nil, nil, fmt.Errorf("%w: query buffer length %d does not match num_queries*dim", domain.ErrInvalidArgument, len(req.Query))
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	inst, err := e.indexSet.Get(req.IndexKind)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	var allowList *roaring64.Bitmap
	if !req.Filter.Empty() {
		allowList = e.bitmap.Query(req.Filter.Field, req.Filter.Op, req.Filter.Value)
	}

	ids, dists, err := inst.Search(req.Query, req.NumQueries, req.K, allowList)
	if err == nil && e.metrics != nil {
		e.metrics.SearchesTotal.WithLabelValues(string(req.IndexKind)).Inc()
		e.metrics.SearchDuration.Observe(time.Since(start).Seconds())
		e.metrics.SearchResultsK.Observe(float64(req.K))
	}
	return ids, dists, err
}

// Query looks up the scalar payload stored for id.
func (e *Engine) Query(id int64) ([]byte, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	data, status, err := e.persistence.Get(idKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	if status == kvstore.StatusNotFound {
		return nil, false, nil
	}

	var envelope domain.UpsertEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false, fmt.Errorf("%w: decode envelope: %v", domain.ErrCorruptFrame, err)
	}
	return envelope.ScalarPayload, true, nil
}

// SaveSnapshot commits the current bitmap and ANN index state to disk.
func (e *Engine) SaveSnapshot() error {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.persistence.SaveSnapshot(e.indexSet, e.bitmap); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.SnapshotsTotal.Inc()
		e.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
		e.metrics.LastSnapshotLogID.Set(float64(e.persistence.LastSnapshotID()))
	}
	return nil
}

// LoadSnapshot restores bitmap and ANN index state from the most
// recently committed snapshot, without touching the WAL read cursor.
func (e *Engine) LoadSnapshot() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistence.LoadSnapshot(e.indexSet, e.bitmap)
}

// Reload restores the engine from disk: loads the most recent snapshot,
// then replays every WAL entry with log_id greater than the snapshot's
// last_snapshot_id. It aborts on the first corrupt frame rather than
// skipping it (spec §7), so a crash mid-replay never silently drops an
// acknowledged write.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.persistence.LoadSnapshot(e.indexSet, e.bitmap); err != nil {
		return err
	}

	for {
		entry, err := e.persistence.ReadNextWAL()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if entry.Op != wal.OpUpsert {
			continue
		}

		var envelope domain.UpsertEnvelope
		if err := json.Unmarshal(entry.Data, &envelope); err != nil {
			return fmt.Errorf("%w: decode wal entry %d: %v", domain.ErrCorruptFrame, entry.LogID, err)
		}
		if err := e.applyUpsert(envelope); err != nil {
			return err
		}
	}
}
