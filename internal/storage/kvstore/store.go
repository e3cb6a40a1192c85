package kvstore

// Status is the three-way outcome of a Get: a key is either present,
// absent, or the lookup itself failed. Callers that treat "absent" as an
// expected outcome (Upsert on a fresh id, LoadSnapshot's last_snapshot_id
// probe) branch on StatusNotFound directly instead of testing an error.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Store is the embedded KV contract used above it by persistence.Manager.
// Keys and values are opaque byte strings; callers own prefixing.
type Store interface {
	// Put writes key to value, creating or overwriting it.
	Put(key, value []byte) error

	// Get looks up key. A StatusNotFound return has a nil value and a nil
	// error: absence is not a failure. A StatusError return carries the
	// underlying error in the returned error value.
	Get(key []byte) ([]byte, Status, error)

	// Close releases the underlying engine.
	Close() error
}
