// Package kvstore provides the embedded key-value adapter vectordb-go uses
// for payload storage and persistence-manager bookkeeping.
//
// The adapter is intentionally narrow: Put and Get, each reporting a
// three-way Status (OK, NotFound, Error) rather than a bare error, because
// every caller in this codebase (persistence.Manager, engine.Engine) branches
// on "missing" as a distinct, often-expected outcome rather than a failure.
// This mirrors the EC_OK/EC_NotFound/EC_Undefined status codes the original
// storage engine returns from its KV layer.
package kvstore
