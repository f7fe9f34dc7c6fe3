package lsm_tree

import (
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	godsutils "github.com/emirpasic/gods/utils"
)

// TableRegistry holds the live on-disk tables of an engine ordered by
// generation. Only the flush worker mutates it.
type TableRegistry struct {
	mu     sync.RWMutex
	tables *treemap.Map
}

func NewTableRegistry() *TableRegistry {
	return &TableRegistry{
		tables: treemap.NewWith(godsutils.Int64Comparator),
	}
}

// Add registers t, taking over the caller's reference.
func (r *TableRegistry) Add(t *SSTable) {
	r.mu.Lock()
	old, found := r.tables.Get(t.Generation())
	r.tables.Put(t.Generation(), t)
	r.mu.Unlock()
	if found {
		old.(*SSTable).release()
	}
}

// Snapshot returns the registered tables newest first, each with an
// extra reference the caller must release.
func (r *TableRegistry) Snapshot() []*SSTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables := make([]*SSTable, 0, r.tables.Size())
	it := r.tables.Iterator()
	for it.End(); it.Prev(); {
		t := it.Value().(*SSTable)
		if t.acquire() {
			tables = append(tables, t)
		}
	}
	return tables
}

// ReplaceAll swaps every registered table for t and returns the removed
// tables. Their registry references move to the caller.
func (r *TableRegistry) ReplaceAll(t *SSTable) []*SSTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := make([]*SSTable, 0, r.tables.Size())
	for _, v := range r.tables.Values() {
		removed = append(removed, v.(*SSTable))
	}
	r.tables.Clear()
	r.tables.Put(t.Generation(), t)
	return removed
}

func (r *TableRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables.Size()
}

// MaxGeneration returns the newest registered generation, or -1.
func (r *TableRegistry) MaxGeneration() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tables.Empty() {
		return -1
	}
	key, _ := r.tables.Max()
	return key.(int64)
}

// Close drops the registry references of all tables.
func (r *TableRegistry) Close() {
	r.mu.Lock()
	values := r.tables.Values()
	r.tables.Clear()
	r.mu.Unlock()
	for _, v := range values {
		v.(*SSTable).release()
	}
}

func releaseAll(tables []*SSTable) {
	for _, t := range tables {
		t.release()
	}
}
