// Package storage re-exports the snapshot storage abstractions for stable
// internal imports and provides the environment-driven backend factory.
package storage

import (
	"kincore/internal/storage/core"
)

type (
	// Driver identifies a storage backend driver.
	Driver = core.Driver
	// Store is the interface for snapshot storage backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverSQLite is the embedded sqlite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the PostgreSQL driver.
	DriverPostgres = core.DriverPostgres
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
)

// ErrNotFound indicates a key with no stored payload.
var ErrNotFound = core.ErrNotFound
