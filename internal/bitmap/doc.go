// Package bitmap implements the scalar-attribute index: for each declared
// (field_name, value) pair it keeps a roaring bitmap of the record ids
// currently holding that value. Search filters consult it as an allow/deny
// list instead of scanning payloads.
//
// Disjointness (spec invariant I2) is maintained by Update: an id may
// occupy at most one value-bitmap per field at a time, so Update always
// removes the id from its previous cell before adding it to the new one.
//
// Wire format (spec §4.3), frames concatenated with no outer envelope:
//
//	[total_size:8][field_name_size:8][field_name][value:8 (i64)][data_size:8][bitmap_bytes]
//
// total_size covers everything after itself. Empty cells (a value-bitmap
// that currently holds no ids) are skipped during serialization.
package bitmap
