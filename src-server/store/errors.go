package store

import "errors"

var (
	// ErrNotFound means no event exists under the given id.
	ErrNotFound = errors.New("store: event not found")
	// ErrDuplicateID means Create collided with an existing event id.
	ErrDuplicateID = errors.New("store: duplicate event id")
	// ErrStorageUnavailable means the durable write failed and was rolled
	// back; nothing the caller can read reflects the attempted change.
	ErrStorageUnavailable = errors.New("store: storage unavailable")
)
