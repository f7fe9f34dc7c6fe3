package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrBadRequest        = errors.New("bad request")
	ErrNotEnoughReplicas = errors.New("not enough replicas")
	// ErrStopped is returned when a storage operation is issued after close.
	ErrStopped        = errors.New("storage is stopped")
	ErrCorruptedTable = errors.New("corrupted table")
	ErrImmutableTable = errors.New("on-disk table is immutable")
)
