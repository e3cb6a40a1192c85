package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// FileName is the single WAL file name under a WAL directory.
	FileName = "log.log"

	// DefaultDirPerm/DefaultFilePerm match the persistence manager's layout
	// permissions.
	DefaultDirPerm  = 0750
	DefaultFilePerm = 0600
)

// WAL is a single append-only binary log of mutating operations. It is not
// safe for concurrent Append calls from multiple goroutines without
// external serialization above it (the engine is single-writer, per spec);
// internally it still guards its own offsets with a mutex since Append and
// Next share the same file handle.
type WAL struct {
	mu    sync.Mutex
	file  *os.File
	path  string

	version uint8
	logID   uint64 // last assigned/observed log_id; starts at 1 on fresh open

	writeOffset int64
	readOffset  int64

	// syncInterval, when non-zero, defers and coalesces fsync to at most
	// once per interval via a background goroutine instead of fsyncing on
	// every Append. Zero (the default) fsyncs synchronously on every
	// Append. See SetSyncInterval.
	syncInterval time.Duration
	dirty        bool
	stop         chan struct{}
	wg           sync.WaitGroup
}

// Open opens (creating if necessary) wal_dir/log.log for append+read.
func Open(dir string, version uint8) (*WAL, error) {
	if dir == "" {
		return nil, fmt.Errorf("wal: dir is required")
	}
	if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("wal: create dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, DefaultFilePerm)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wal: stat %s: %w", path, err)
	}

	return &WAL{
		file:        f,
		path:        path,
		version:     version,
		logID:       1,
		writeOffset: stat.Size(),
		readOffset:  0,
	}, nil
}

// SetSyncInterval configures batched fsync behavior (spec's
// storage.wal_sync_interval): a non-zero interval defers the fsync of an
// Append to a background goroutine that flushes at most once per
// interval, trading a bounded window of possible data loss on crash for
// fewer fsync calls under write load. A zero interval (the default if
// never called) fsyncs synchronously on every Append, matching the
// WAL's original durability posture. Call once, right after Open.
func (w *WAL) SetSyncInterval(d time.Duration) {
	w.mu.Lock()
	w.syncInterval = d
	if d > 0 && w.stop == nil {
		w.stop = make(chan struct{})
		w.wg.Add(1)
		go w.syncLoop(d, w.stop)
	}
	w.mu.Unlock()
}

func (w *WAL) syncLoop(d time.Duration, stop chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			if w.dirty && w.file != nil {
				if err := w.file.Sync(); err == nil {
					w.dirty = false
				}
			}
			w.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// LogID returns the highest log_id assigned or observed so far.
func (w *WAL) LogID() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.logID
}

// SetLogID advances the internal log_id counter to at least id. Used by the
// persistence manager during Reload to recover log_id as
// max(log_id seen in WAL, last_snapshot_id) before new appends resume.
func (w *WAL) SetLogID(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id > w.logID {
		w.logID = id
	}
}

// Close flushes any pending batched fsync, stops the background sync
// loop if one is running, and releases the underlying file handle.
func (w *WAL) Close() error {
	w.mu.Lock()
	stop := w.stop
	w.stop = nil
	w.mu.Unlock()

	if stop != nil {
		close(stop)
		w.wg.Wait()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	if w.dirty {
		if err := w.file.Sync(); err != nil {
			w.file.Close()
			w.file = nil
			return fmt.Errorf("wal: final flush: %w", err)
		}
		w.dirty = false
	}
	err := w.file.Close()
	w.file = nil
	return err
}
