// Package engine implements the database engine (spec §4.6): the
// top-level coordinator owning one persistence manager, one bitmap
// index, and one ANN index set, exposing Upsert, Search, Query, Reload,
// SaveSnapshot, and LoadSnapshot.
//
// Two deliberate departures from the design the engine was distilled
// from, both resolving open questions in spec §9:
//
//   - WAL ownership. Upsert writes its own WAL entry before mutating any
//     state, rather than relying on an external caller to call WriteWAL
//     first. Reload replays through applyUpsert, the same internal path
//     Upsert uses after its own WAL write, so durability and application
//     can never diverge.
//   - Bitmap disjointness. Upsert always decodes the previous payload
//     (when one exists) to recover a field's prior value, regardless of
//     whether the caller supplied one, so a record can never end up in
//     two value-bitmaps for the same field.
//
// The value stored under external/data/<id> is the full upsert envelope
// (vector, scalar payload, fields), not just the scalar payload: Upsert
// needs the envelope's prior field values to maintain bitmap disjointness,
// and Reload needs the same encoding to replay from the WAL. Query decodes
// the envelope and returns only its ScalarPayload, so the "payload caller
// gets back" contract stays exactly the bytes they wrote.
package engine
