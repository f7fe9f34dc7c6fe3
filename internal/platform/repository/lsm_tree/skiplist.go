package lsm_tree

import (
	"QuorumKV/internal/domain"
	"bytes"
	"math/rand/v2"
	"sync/atomic"
)

const (
	maxHeight = 20
	// one in branching nodes is promoted to the next level
	branching = 4
)

// SkipList is a sorted map from key to value that readers traverse
// without locks. Inserts link nodes level by level with CAS and updates
// swap the value pointer of an existing node.
type SkipList struct {
	head   *element
	height atomic.Int32
	length atomic.Int64
}

type element struct {
	key   []byte
	value atomic.Pointer[domain.Value]
	next  []atomic.Pointer[element]
}

func newElement(key []byte, value *domain.Value, height int) *element {
	e := &element{
		key:  key,
		next: make([]atomic.Pointer[element], height),
	}
	e.value.Store(value)
	return e
}

func (e *element) cell() domain.Cell {
	return domain.NewCell(e.key, *e.value.Load())
}

func NewSkipList() *SkipList {
	s := &SkipList{
		head: newElement(nil, nil, maxHeight),
	}
	s.height.Store(1)
	return s
}

func (s *SkipList) Len() int64 {
	return s.length.Load()
}

// Put stores value under key and returns the value it replaced, or nil
// when the key was new.
func (s *SkipList) Put(key []byte, value *domain.Value) *domain.Value {
	var prev, next [maxHeight]*element
	listHeight := int(s.height.Load())
	before := s.head
	for i := maxHeight - 1; i >= 0; i-- {
		if i >= listHeight {
			prev[i] = s.head
			continue
		}
		p, n, found := s.findSpliceForLevel(key, before, i)
		if found {
			return n.value.Swap(value)
		}
		prev[i], next[i] = p, n
		before = p
	}

	height := randomHeight()
	e := newElement(key, value, height)
	for {
		current := s.height.Load()
		if int(current) >= height || s.height.CompareAndSwap(current, int32(height)) {
			break
		}
	}

	for i := 0; i < height; i++ {
		for {
			e.next[i].Store(next[i])
			if prev[i].next[i].CompareAndSwap(next[i], e) {
				break
			}
			p, n, found := s.findSpliceForLevel(key, prev[i], i)
			if found {
				// a concurrent Put linked the same key at level 0 first
				return n.value.Swap(value)
			}
			prev[i], next[i] = p, n
		}
	}
	s.length.Add(1)
	return nil
}

func (s *SkipList) Get(key []byte) (domain.Value, bool) {
	e := s.seek(key)
	if e == nil || !bytes.Equal(e.key, key) {
		return domain.Value{}, false
	}
	return *e.value.Load(), true
}

// findSpliceForLevel walks level from before and returns the pair of
// elements key belongs between. found reports an exact match in next.
func (s *SkipList) findSpliceForLevel(key []byte, before *element, level int) (*element, *element, bool) {
	for {
		next := before.next[level].Load()
		if next == nil {
			return before, nil, false
		}
		c := bytes.Compare(key, next.key)
		if c == 0 {
			return before, next, true
		}
		if c < 0 {
			return before, next, false
		}
		before = next
	}
}

// seek returns the first element with a key >= key.
func (s *SkipList) seek(key []byte) *element {
	x := s.head
	for level := int(s.height.Load()) - 1; level >= 0; level-- {
		for {
			next := x.next[level].Load()
			if next == nil || bytes.Compare(next.key, key) >= 0 {
				break
			}
			x = next
		}
	}
	return x.next[0].Load()
}

// seekBefore returns the last element with a key < key, or <= key when
// inclusive. A nil key selects the last element.
func (s *SkipList) seekBefore(key []byte, inclusive bool) *element {
	x := s.head
	for level := int(s.height.Load()) - 1; level >= 0; level-- {
		for {
			next := x.next[level].Load()
			if next == nil {
				break
			}
			if key != nil {
				c := bytes.Compare(next.key, key)
				if c > 0 || (c == 0 && !inclusive) {
					break
				}
			}
			x = next
		}
	}
	if x == s.head {
		return nil
	}
	return x
}

func randomHeight() int {
	h := 1
	for h < maxHeight && rand.IntN(branching) == 0 {
		h++
	}
	return h
}

type skipListIterator struct {
	list       *SkipList
	from       []byte
	current    *element
	started    bool
	descending bool
}

// Iterator walks keys >= from in ascending order. Elements inserted while
// iterating may or may not be observed.
func (s *SkipList) Iterator(from []byte) Iterator {
	return &skipListIterator{list: s, from: from}
}

// DescendingIterator walks keys <= from in descending order. A nil from
// starts at the last key.
func (s *SkipList) DescendingIterator(from []byte) Iterator {
	return &skipListIterator{list: s, from: from, descending: true}
}

func (it *skipListIterator) Next() bool {
	switch {
	case !it.started:
		it.started = true
		if it.descending {
			it.current = it.list.seekBefore(it.from, true)
		} else {
			it.current = it.list.seek(it.from)
		}
	case it.current == nil:
		return false
	case it.descending:
		it.current = it.list.seekBefore(it.current.key, false)
	default:
		it.current = it.current.next[0].Load()
	}
	return it.current != nil
}

func (it *skipListIterator) Cell() domain.Cell {
	return it.current.cell()
}

func (it *skipListIterator) Err() error {
	return nil
}
