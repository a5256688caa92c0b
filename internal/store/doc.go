// Package store defines the persistence abstractions the engine consumes:
// a local key-value store, a remote document store, the read-only catalog
// provider, and a clock source. Implementations live under
// internal/platform; services depend only on these interfaces.
package store
