package wal

import "errors"

// OpType identifies the kind of mutating operation a WAL frame records.
type OpType uint8

const (
	OpUnspecified OpType = iota
	OpUpsert
)

// Errors surfaced by Append/Next. CorruptFrame-kind failures are
// reported as ErrCorrupted; IOFailure-kind failures are returned as plain
// wrapped *os.PathError/io errors from the call site.
var (
	ErrCorrupted   = errors.New("wal: corrupted frame")
	ErrClosed      = errors.New("wal: closed")
	ErrInvalidSize = errors.New("wal: invalid frame size")
)

// frameOverhead is the fixed portion of a frame's total_size field:
// log_id(8) + version(1) + op(1) + data_size(8).
const frameOverhead = 8 + 1 + 1 + 8

// Entry is one durable record yielded by Next.
type Entry struct {
	LogID uint64
	Op    OpType
	Data  []byte
}
