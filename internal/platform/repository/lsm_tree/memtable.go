package lsm_tree

import (
	"QuorumKV/internal/domain"
	"bytes"
	"sync/atomic"
)

// Memtable is the mutable in-memory table of one generation. It is safe
// for concurrent use without external locking.
type Memtable struct {
	skiplist *SkipList
	size     atomic.Int64
}

func NewMemtable() *Memtable {
	return &Memtable{
		skiplist: NewSkipList(),
	}
}

func (mt *Memtable) Upsert(key, payload []byte) {
	if payload == nil {
		payload = []byte{}
	}
	mt.put(key, domain.NewValue(domain.Now(), bytes.Clone(payload)))
}

// Remove stores a tombstone for key. The key stays visible until compaction.
func (mt *Memtable) Remove(key []byte) {
	mt.put(key, domain.NewTombstone(domain.Now()))
}

func (mt *Memtable) put(key []byte, value domain.Value) {
	old := mt.skiplist.Put(bytes.Clone(key), &value)
	if old == nil {
		mt.size.Add(int64(len(key)) + value.Size())
		return
	}
	mt.size.Add(value.Size() - old.Size())
}

func (mt *Memtable) Get(key []byte) (domain.Value, bool) {
	return mt.skiplist.Get(key)
}

// SizeInBytes is the sum of key and payload sizes held by the table.
func (mt *Memtable) SizeInBytes() int64 {
	return mt.size.Load()
}

func (mt *Memtable) Len() int64 {
	return mt.skiplist.Len()
}

func (mt *Memtable) IsEmpty() bool {
	return mt.skiplist.Len() == 0
}

func (mt *Memtable) Iterator(from []byte) Iterator {
	return mt.skiplist.Iterator(from)
}

func (mt *Memtable) DescendingIterator(from []byte) Iterator {
	return mt.skiplist.DescendingIterator(from)
}
