package store

import "errors"

var (
	// ErrNotFound indicates no record exists for the requested id.
	ErrNotFound = errors.New("store: record not found")

	// ErrInvalidRecord indicates a record without an id.
	ErrInvalidRecord = errors.New("store: record id is required")

	// ErrUnknownDriver indicates Open was given an unsupported driver name.
	ErrUnknownDriver = errors.New("store: unknown driver")

	// ErrInvalidPageToken indicates a Scan token the store did not issue.
	ErrInvalidPageToken = errors.New("store: invalid page token")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
