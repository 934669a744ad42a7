package store

import "errors"

var (
	// ErrNotFound means the key has never been written or was deleted.
	ErrNotFound = errors.New("key not found")
	// ErrStorageUnavailable wraps every backend failure other than a missing key.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
