package kvstore

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerStore implements Store using Badger v3 as the embedded engine.
type BadgerStore struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsGCReclaimed  prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
}

// Config tunes the embedded Badger engine.
type Config struct {
	Dir string

	GCInterval       string  // Default: 10m
	GCThreshold      float64 // Default: 0.5
	CacheSize        int64   // Default: 64MB
	ValueLogFileSize int64   // Default: 1GB
	SyncWrites       bool    // Default: true (durability over throughput; single-writer engine)
}

// DefaultConfig returns sane defaults for a BadgerStore rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        64 << 20,
		ValueLogFileSize: 1 << 30,
		SyncWrites:       true,
	}
}

// Open opens (creating if necessary) a Badger-backed Store at cfg.Dir.
func Open(cfg Config, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("kvstore: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = cfg.CacheSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open badger: %w", err)
	}

	store := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go store.gcLoop()

	logger.Info("kv store opened", "dir", cfg.Dir)
	return store, nil
}

// Put stores a key-value pair.
func (s *BadgerStore) Put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Get looks up key, returning StatusNotFound (not an error) if absent.
func (s *BadgerStore) Get(key []byte) ([]byte, Status, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, StatusNotFound, nil
	}
	if err != nil {
		return nil, StatusError, err
	}
	return value, StatusOK, nil
}

// RegisterMetrics wires Badger size/GC gauges into registry. Call once
// during startup; returns the store for chaining.
func (s *BadgerStore) RegisterMetrics(registry *prometheus.Registry) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vectordb",
		Subsystem: "kvstore",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vectordb",
		Subsystem: "kvstore",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsGCReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vectordb",
		Subsystem: "kvstore",
		Name:      "gc_runs_total",
		Help:      "Total Badger value-log GC cycles that reclaimed space",
	})

	registry.MustRegister(s.metricsLSMSize, s.metricsValueLogSize, s.metricsGCReclaimed)
	go s.metricsUpdateLoop()
	return s
}

func (s *BadgerStore) metricsUpdateLoop() {
	if s.metricsLSMSize == nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lsm, vlog := s.db.Size()
			s.metricsLSMSize.Set(float64(lsm))
			s.metricsValueLogSize.Set(float64(vlog))
		case <-s.stopCh:
			return
		}
	}
}

func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	interval, err := time.ParseDuration(s.cfg.GCInterval)
	if err != nil {
		s.logger.Error("invalid gc_interval, using default 10m", "error", err)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(s.cfg.GCThreshold)
				if err == nil {
					if s.metricsGCReclaimed != nil {
						s.metricsGCReclaimed.Inc()
					}
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Error("kvstore gc failed", "error", err)
				}
				break
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the GC loop and closes the underlying Badger database.
func (s *BadgerStore) Close() error {
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("kvstore: close: %w", err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
