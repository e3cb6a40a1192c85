// Package annindex provides the ANN index set: a registry mapping an index
// kind (FLAT, HNSW) to a single FAISS-backed instance implementing
// insert/remove/search/save/load (spec §4.4).
//
// Every instance is an IDMap-wrapped FAISS index so that external i64 ids
// can be used directly instead of FAISS's internal sequential row numbers.
// FLAT's underlying storage supports true removal, so it gets
// RemoveIDs-based overwrite on re-insert. HNSW's FAISS implementation does
// not support removal; Instances of that kind are wrapped in a
// tombstone-bitmap decorator (tombstone.go) that gives it the same logical
// delete-then-search behavior without touching the graph.
package annindex
