package domain

import "context"

// Storage is the local storage engine as seen by the application layer.
type Storage interface {
	Get(key []byte) (Cell, error)
	Upsert(key, payload []byte) error
	Remove(key []byte) error
	Range(start, end []byte) (RecordIterator, error)
	DescendingRange(from, to []byte) (RecordIterator, error)
	Compact(ctx context.Context) error
}

// RecordIterator is a lazy, single pass sequence of live records.
type RecordIterator interface {
	Next() bool
	Record() Record
	Err() error
	Close() error
}
