package storage

import "errors"

// Common client storage errors
var (
	// ErrSnapshotNotFound indicates that no queue snapshot has been persisted yet
	ErrSnapshotNotFound = errors.New("queue snapshot not found")

	// ErrMetaNotFound indicates that requested metadata key does not exist
	ErrMetaNotFound = errors.New("metadata key not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
