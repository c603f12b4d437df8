// Package core defines the abstractions shared by snapshot storage backends.
// Higher layers see one keyed byte store regardless of the backing medium.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete snapshot storage backend implementation.
type Driver string

const (
	// DriverMemory is the in-memory implementation, used in tests.
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverSQLite stores payloads in an embedded sqlite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores payloads in a PostgreSQL server.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores payloads in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
)

// Store is a minimal keyed byte store holding the primary snapshot, its
// rotated backups, and the backup manifest. Writes are full overwrites.
type Store interface {
	// Put writes payload under key, replacing any existing value.
	Put(ctx context.Context, key string, payload []byte) error
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns all keys with the given prefix in lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Driver identifies the backend.
	Driver() Driver
}

// ErrNotFound is returned by Get when the key has no stored payload.
var ErrNotFound = errors.New("storage: key not found")
