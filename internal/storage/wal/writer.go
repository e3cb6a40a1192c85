package wal

import (
	"encoding/binary"
	"fmt"
)

// Append assigns log_id := log_id + 1, writes the frame, and flushes to
// the OS. Returns the assigned log_id. The write must always succeed for
// Append to report success; the fsync either happens synchronously or is
// deferred to a background loop, depending on SetSyncInterval (spec
// §4.2, storage.wal_sync_interval).
func (w *WAL) Append(op OpType, data []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, ErrClosed
	}

	logID := w.logID + 1
	dataSize := uint64(len(data))
	totalSize := uint64(frameOverhead) + dataSize

	frame := make([]byte, 8+totalSize)
	binary.LittleEndian.PutUint64(frame[0:8], totalSize)
	binary.LittleEndian.PutUint64(frame[8:16], logID)
	frame[16] = w.version
	frame[17] = byte(op)
	binary.LittleEndian.PutUint64(frame[18:26], dataSize)
	copy(frame[26:], data)

	n, err := w.file.WriteAt(frame, w.writeOffset)
	if err != nil {
		return 0, fmt.Errorf("wal: write frame: %w", err)
	}
	if n != len(frame) {
		return 0, fmt.Errorf("wal: short write: wrote %d of %d bytes", n, len(frame))
	}
	if w.syncInterval <= 0 {
		if err := w.file.Sync(); err != nil {
			return 0, fmt.Errorf("wal: flush: %w", err)
		}
	} else {
		w.dirty = true
	}

	w.writeOffset += int64(len(frame))
	w.logID = logID
	return logID, nil
}
