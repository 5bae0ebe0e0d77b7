package storage

import "errors"

// Common storage errors
var (
	// ErrRecordNotFound indicates that content record was not found
	ErrRecordNotFound = errors.New("record not found")

	// ErrOpNotFound indicates that operation is absent from the idempotency ledger
	ErrOpNotFound = errors.New("operation not found in ledger")
)
