package domain

import "bytes"

// Value is a versioned payload. A tombstone carries no payload.
type Value struct {
	timestamp int64
	payload   []byte
	tombstone bool
}

func NewValue(timestamp int64, payload []byte) Value {
	return Value{
		timestamp: timestamp,
		payload:   payload,
	}
}

func NewTombstone(timestamp int64) Value {
	return Value{
		timestamp: timestamp,
		tombstone: true,
	}
}

func (v Value) Timestamp() int64 {
	return v.timestamp
}

func (v Value) Payload() []byte {
	return v.payload
}

func (v Value) IsTombstone() bool {
	return v.tombstone
}

// Size is the number of bytes the value accounts for in an in-memory table.
func (v Value) Size() int64 {
	if v.tombstone {
		return 0
	}
	return int64(len(v.payload))
}

type Cell struct {
	key   []byte
	value Value
}

func NewCell(key []byte, value Value) Cell {
	return Cell{
		key:   key,
		value: value,
	}
}

func (c Cell) Key() []byte {
	return c.key
}

func (c Cell) Value() Value {
	return c.value
}

// Detach returns a copy of the cell that does not share memory with
// the table it was decoded from.
func (c Cell) Detach() Cell {
	key := bytes.Clone(c.key)
	if c.value.tombstone {
		return NewCell(key, NewTombstone(c.value.timestamp))
	}
	payload := c.value.payload
	if payload != nil {
		payload = bytes.Clone(payload)
	}
	return NewCell(key, NewValue(c.value.timestamp, payload))
}

// CompareCells orders by key ascending, then by timestamp descending so
// the most recent version of a key comes first.
func CompareCells(a, b Cell) int {
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c
	}
	switch {
	case a.value.timestamp > b.value.timestamp:
		return -1
	case a.value.timestamp < b.value.timestamp:
		return 1
	}
	return 0
}

// Record is a live key/payload pair as returned by range queries.
type Record struct {
	Key   []byte
	Value []byte
}
