package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Next reads the next entry from the current read cursor, which starts at
// position zero when the WAL is opened and advances with every successful
// call. It returns io.EOF on a clean end of file (no partial frame
// present); subsequent Append calls are unaffected and may continue to
// extend the file past the point Next last stopped. It returns
// ErrCorrupted if a short or structurally invalid frame is found (a
// truncated tail), without advancing the cursor further than the bytes it
// consumed trying to read the frame.
func (w *WAL) Next() (Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return Entry{}, ErrClosed
	}

	var sizeBuf [8]byte
	n, err := w.file.ReadAt(sizeBuf[:], w.readOffset)
	if n == 0 && errors.Is(err, io.EOF) {
		return Entry{}, io.EOF
	}
	if n < 8 {
		return Entry{}, fmt.Errorf("%w: truncated total_size field", ErrCorrupted)
	}

	totalSize := binary.LittleEndian.Uint64(sizeBuf[:])
	if totalSize < frameOverhead {
		return Entry{}, fmt.Errorf("%w: total_size %d smaller than frame overhead", ErrCorrupted, totalSize)
	}

	rest := make([]byte, totalSize)
	n, err = w.file.ReadAt(rest, w.readOffset+8)
	if uint64(n) != totalSize {
		if errors.Is(err, io.EOF) || err == nil {
			return Entry{}, fmt.Errorf("%w: short frame body: got %d of %d bytes", ErrCorrupted, n, totalSize)
		}
		return Entry{}, fmt.Errorf("wal: read frame body: %w", err)
	}

	logID := binary.LittleEndian.Uint64(rest[0:8])
	// version := rest[8] -- not currently branched on; carried for forward compat.
	op := OpType(rest[9])
	dataSize := binary.LittleEndian.Uint64(rest[10:18])
	if uint64(len(rest)-18) != dataSize {
		return Entry{}, fmt.Errorf("%w: data_size %d does not match frame body", ErrCorrupted, dataSize)
	}

	data := make([]byte, dataSize)
	copy(data, rest[18:])

	w.readOffset += 8 + int64(totalSize)

	return Entry{LogID: logID, Op: op, Data: data}, nil
}
