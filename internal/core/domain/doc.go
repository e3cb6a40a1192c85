// Package domain defines the core domain models for vectordb-go.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Record: the unit of storage (id, vector, scalar payload, fields)
//   - IndexKind: the enumeration of ANN index kinds a record can address
//   - UpsertEnvelope: the WAL-durable representation of an Upsert request
//   - Errors: the error-kind taxonomy shared by every storage layer
package domain
