package domain

import "fmt"

// ValidationError reports a person edit missing a required field. The edit is
// rejected before any mutation is applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IntegrityError describes a self-referential relation found and repaired by
// the cleanup pass. It is recorded, never surfaced as a user-facing failure.
type IntegrityError struct {
	PersonID string
	Relation string
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf("person %s: %s references itself", e.PersonID, e.Relation)
}

// LoadFormatError reports a persisted snapshot of unrecognized shape. The
// load is aborted and prior in-memory state stays authoritative.
type LoadFormatError struct {
	Reason string
}

func (e LoadFormatError) Error() string {
	return fmt.Sprintf("unrecognized snapshot format: %s", e.Reason)
}

// StorageQuotaError signals a serialized snapshot over the size limit. It
// triggers the compressed fallback and is not fatal.
type StorageQuotaError struct {
	Size  int
	Limit int
}

func (e StorageQuotaError) Error() string {
	return fmt.Sprintf("snapshot size %d exceeds limit %d", e.Size, e.Limit)
}

// StorageWriteError wraps a failed storage write. Saves are fire-and-forget:
// the failure is reported and retried only on the next natural save cadence.
type StorageWriteError struct {
	Key string
	Err error
}

func (e StorageWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Key, e.Err)
}

func (e StorageWriteError) Unwrap() error { return e.Err }
