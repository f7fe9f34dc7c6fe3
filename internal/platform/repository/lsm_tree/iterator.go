package lsm_tree

import (
	"QuorumKV/internal/domain"
	"bytes"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// Iterator is a forward-only cursor over cells. Next must be called
// before the first Cell.
type Iterator interface {
	Next() bool
	Cell() domain.Cell
	Err() error
}

type mergeSource struct {
	it       Iterator
	cell     domain.Cell
	priority int
}

// MergeIterator merges sorted sources into one sequence with a single
// cell per key. Sources are given newest first; for equal keys the cell
// with the highest timestamp wins and equal timestamps go to the newer
// source.
type MergeIterator struct {
	heap       *binaryheap.Heap
	sources    []Iterator
	descending bool
	current    domain.Cell
	started    bool
	err        error
}

func NewMergeIterator(sources []Iterator, descending bool) *MergeIterator {
	m := &MergeIterator{
		sources:    sources,
		descending: descending,
	}
	m.heap = binaryheap.NewWith(func(a, b interface{}) int {
		return m.compare(a.(*mergeSource), b.(*mergeSource))
	})
	for i, it := range sources {
		if it.Next() {
			m.heap.Push(&mergeSource{it: it, cell: it.Cell(), priority: i})
		} else if err := it.Err(); err != nil && m.err == nil {
			m.err = err
		}
	}
	return m
}

func (m *MergeIterator) compare(a, b *mergeSource) int {
	c := bytes.Compare(a.cell.Key(), b.cell.Key())
	if m.descending {
		c = -c
	}
	if c != 0 {
		return c
	}
	ta, tb := a.cell.Value().Timestamp(), b.cell.Value().Timestamp()
	switch {
	case ta > tb:
		return -1
	case ta < tb:
		return 1
	}
	return a.priority - b.priority
}

func (m *MergeIterator) Next() bool {
	for m.err == nil {
		v, ok := m.heap.Pop()
		if !ok {
			return false
		}
		src := v.(*mergeSource)
		cell := src.cell
		if src.it.Next() {
			src.cell = src.it.Cell()
			m.heap.Push(src)
		} else if err := src.it.Err(); err != nil {
			m.err = err
			return false
		}
		if m.started && bytes.Equal(cell.Key(), m.current.Key()) {
			continue
		}
		m.current = cell
		m.started = true
		return true
	}
	return false
}

func (m *MergeIterator) Cell() domain.Cell {
	return m.current
}

func (m *MergeIterator) Err() error {
	return m.err
}

// recordIterator exposes the live cells of a merged view below a bound.
type recordIterator struct {
	cells   Iterator
	within  func(key []byte) bool
	release func()
	record  domain.Record
	done    bool
}

func newRecordIterator(cells Iterator, within func(key []byte) bool, release func()) *recordIterator {
	return &recordIterator{
		cells:   cells,
		within:  within,
		release: release,
	}
}

func (it *recordIterator) Next() bool {
	for !it.done {
		if !it.cells.Next() {
			it.Close()
			return false
		}
		cell := it.cells.Cell()
		if !it.within(cell.Key()) {
			it.Close()
			return false
		}
		if cell.Value().IsTombstone() {
			continue
		}
		it.record = domain.Record{
			Key:   bytes.Clone(cell.Key()),
			Value: bytes.Clone(cell.Value().Payload()),
		}
		return true
	}
	return false
}

func (it *recordIterator) Record() domain.Record {
	return it.record
}

func (it *recordIterator) Err() error {
	return it.cells.Err()
}

func (it *recordIterator) Close() error {
	if !it.done {
		it.done = true
		it.release()
	}
	return nil
}

type sliceIterator struct {
	cells []domain.Cell
	pos   int
}

// NewSliceIterator iterates over already sorted cells.
func NewSliceIterator(cells []domain.Cell) Iterator {
	return &sliceIterator{cells: cells, pos: -1}
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.cells)
}

func (it *sliceIterator) Cell() domain.Cell {
	return it.cells[it.pos]
}

func (it *sliceIterator) Err() error {
	return nil
}
