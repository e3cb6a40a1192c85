package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/tinyvec/vectordb-go/internal/core/domain"
)

// Index is the scalar-attribute bitmap index. The zero value is not usable;
// construct with New.
type Index struct {
	mu sync.RWMutex
	// fields[field_name][value] -> set of ids currently holding that value.
	fields map[string]map[int64]*roaring64.Bitmap
}

// New returns an empty Index.
func New() *Index {
	return &Index{fields: make(map[string]map[int64]*roaring64.Bitmap)}
}

// Update records that id now holds newValue for field. If oldValue is
// non-nil, id is first removed from oldValue's cell; if oldValue is nil,
// id is removed from every other value cell under field. Either way id
// ends up in exactly one value cell for field (disjointness invariant I2).
func (ix *Index) Update(id int64, field string, newValue int64, oldValue *int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	values, ok := ix.fields[field]
	if !ok {
		values = make(map[int64]*roaring64.Bitmap)
		ix.fields[field] = values
	}

	if oldValue != nil {
		if old, ok := values[*oldValue]; ok {
			old.Remove(uint64(id))
		}
	} else {
		for v, bm := range values {
			if v != newValue {
				bm.Remove(uint64(id))
			}
		}
	}

	bm, ok := values[newValue]
	if !ok {
		bm = roaring64.New()
		values[newValue] = bm
	}
	bm.Add(uint64(id))
}

// Query returns the set of ids matching field op value. EQUAL returns the
// single matching cell (empty if the value was never set); NOT_EQUAL
// returns the union of every other cell under field. An unknown field
// returns an empty bitmap for either operator.
func (ix *Index) Query(field string, op domain.FilterOp, value int64) *roaring64.Bitmap {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	result := roaring64.New()
	values, ok := ix.fields[field]
	if !ok {
		return result
	}

	switch op {
	case domain.FilterEqual:
		if bm, ok := values[value]; ok {
			result.Or(bm)
		}
	case domain.FilterNotEqual:
		for v, bm := range values {
			if v == value {
				continue
			}
			result.Or(bm)
		}
	}
	return result
}

// FieldCount returns the number of distinct attribute fields currently
// tracked, regardless of how many values each holds.
func (ix *Index) FieldCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.fields)
}

// Serialize encodes the index per the wire format in doc.go. Empty cells
// are skipped.
func (ix *Index) Serialize() []byte {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []byte
	for field, values := range ix.fields {
		for value, bm := range values {
			if bm.IsEmpty() {
				continue
			}

			var buf bytes.Buffer
			if _, err := bm.WriteTo(&buf); err != nil {
				// WriteTo only fails writing to an in-memory buffer, which
				// cannot happen; treat as unreachable.
				panic(fmt.Sprintf("bitmap: serialize cell %s=%d: %v", field, value, err))
			}
			bmBytes := buf.Bytes()

			fieldBytes := []byte(field)
			dataSize := uint64(len(bmBytes))
			totalSize := uint64(8+len(fieldBytes)) + 8 + 8 + dataSize

			frame := make([]byte, 8+totalSize)
			binary.LittleEndian.PutUint64(frame[0:8], totalSize)
			binary.LittleEndian.PutUint64(frame[8:16], uint64(len(fieldBytes)))
			copy(frame[16:16+len(fieldBytes)], fieldBytes)
			off := 16 + len(fieldBytes)
			binary.LittleEndian.PutUint64(frame[off:off+8], uint64(value))
			off += 8
			binary.LittleEndian.PutUint64(frame[off:off+8], dataSize)
			off += 8
			copy(frame[off:], bmBytes)

			out = append(out, frame...)
		}
	}
	return out
}

// Parse replaces the index's contents with the frames decoded from data,
// per the wire format in doc.go.
func (ix *Index) Parse(data []byte) error {
	fields := make(map[string]map[int64]*roaring64.Bitmap)

	for len(data) > 0 {
		if len(data) < 8 {
			return fmt.Errorf("%w: truncated cell total_size", domain.ErrCorruptFrame)
		}
		totalSize := binary.LittleEndian.Uint64(data[0:8])
		if uint64(len(data)-8) < totalSize {
			return fmt.Errorf("%w: short cell body: want %d, have %d", domain.ErrCorruptFrame, totalSize, len(data)-8)
		}
		body := data[8 : 8+totalSize]
		data = data[8+totalSize:]

		if len(body) < 8 {
			return fmt.Errorf("%w: truncated field_name_size", domain.ErrCorruptFrame)
		}
		nameSize := binary.LittleEndian.Uint64(body[0:8])
		body = body[8:]
		if uint64(len(body)) < nameSize {
			return fmt.Errorf("%w: truncated field_name", domain.ErrCorruptFrame)
		}
		fieldName := string(body[:nameSize])
		body = body[nameSize:]

		if len(body) < 16 {
			return fmt.Errorf("%w: truncated value/data_size", domain.ErrCorruptFrame)
		}
		value := int64(binary.LittleEndian.Uint64(body[0:8]))
		dataSize := binary.LittleEndian.Uint64(body[8:16])
		body = body[16:]
		if uint64(len(body)) != dataSize {
			return fmt.Errorf("%w: bitmap blob size mismatch", domain.ErrCorruptFrame)
		}

		bm := roaring64.New()
		if _, err := bm.ReadFrom(bytes.NewReader(body)); err != nil {
			return fmt.Errorf("%w: decode bitmap for %s=%d: %v", domain.ErrCorruptFrame, fieldName, value, err)
		}

		values, ok := fields[fieldName]
		if !ok {
			values = make(map[int64]*roaring64.Bitmap)
			fields[fieldName] = values
		}
		values[value] = bm
	}

	ix.mu.Lock()
	ix.fields = fields
	ix.mu.Unlock()
	return nil
}
