package lsm_tree

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/utils"
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	offsetSize   = 8
	rowCountSize = 8
)

// SSTable is an immutable sorted table backed by a memory mapped file:
//
//	[cell 0]...[cell n-1][offset 0]...[offset n-1][row count]
//
// All integers are big-endian. Cells decoded from the table alias the
// mapping and are valid while the caller holds a reference.
type SSTable struct {
	path       string
	generation int64
	arena      []byte
	cells      []byte
	offsets    []byte
	rows       int
	refs       atomic.Int64
}

// WriteTable writes cells to the table file of generation through a
// temporary file that is renamed into place once complete.
func WriteTable(dir string, generation int64, cells Iterator) (string, error) {
	path := filepath.Join(dir, tableFileName(generation))
	tmp := filepath.Join(dir, tempFileName(generation))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", tmp)
	}
	if err := writeCells(f, cells); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", errors.Wrapf(err, "sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, "close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, "rename %s", tmp)
	}
	return path, syncDir(dir)
}

func writeCells(f *os.File, cells Iterator) error {
	w := bufio.NewWriterSize(f, 64*1024)
	var offsets []int64
	var offset int64
	for cells.Next() {
		offsets = append(offsets, offset)
		n, err := utils.AppendCell(w, cells.Cell())
		if err != nil {
			return errors.Wrapf(err, "write cell %d", len(offsets)-1)
		}
		offset += n
	}
	if err := cells.Err(); err != nil {
		return errors.Wrap(err, "read cells")
	}
	for _, o := range offsets {
		if err := binary.Write(w, binary.BigEndian, o); err != nil {
			return errors.Wrap(err, "write offsets")
		}
	}
	if err := binary.Write(w, binary.BigEndian, int64(len(offsets))); err != nil {
		return errors.Wrap(err, "write row count")
	}
	return errors.Wrap(w.Flush(), "flush table")
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return errors.Wrapf(err, "open %s", dir)
	}
	defer d.Close()
	return errors.Wrapf(d.Sync(), "sync %s", dir)
}

// OpenTable maps a finished table file. The returned table holds one
// reference owned by the caller.
func OpenTable(path string, generation int64) (*SSTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	size := info.Size()
	if size < rowCountSize {
		return nil, errors.Wrapf(domain.ErrCorruptedTable, "%s is %d bytes", path, size)
	}
	arena, err := mmapFile(f, size)
	if err != nil {
		return nil, err
	}

	rows := int64(binary.BigEndian.Uint64(arena[size-rowCountSize:]))
	if rows < 0 || rows > (size-rowCountSize)/offsetSize {
		munmap(arena)
		return nil, errors.Wrapf(domain.ErrCorruptedTable, "%s declares %d rows", path, rows)
	}
	offsetsStart := size - rowCountSize - rows*offsetSize

	t := &SSTable{
		path:       path,
		generation: generation,
		arena:      arena,
		cells:      arena[:offsetsStart],
		offsets:    arena[offsetsStart : size-rowCountSize],
		rows:       int(rows),
	}
	t.refs.Store(1)
	return t, nil
}

func (t *SSTable) Path() string {
	return t.path
}

func (t *SSTable) Generation() int64 {
	return t.generation
}

func (t *SSTable) Rows() int {
	return t.rows
}

// Upsert always fails: tables are never mutated once written.
func (t *SSTable) Upsert([]byte, []byte) error {
	return domain.ErrImmutableTable
}

// Remove always fails: tables are never mutated once written.
func (t *SSTable) Remove([]byte) error {
	return domain.ErrImmutableTable
}

func (t *SSTable) acquire() bool {
	for {
		refs := t.refs.Load()
		if refs <= 0 {
			return false
		}
		if t.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// release drops a reference and unmaps the file with the last one.
func (t *SSTable) release() error {
	if t.refs.Add(-1) != 0 {
		return nil
	}
	arena := t.arena
	t.arena, t.cells, t.offsets = nil, nil, nil
	return munmap(arena)
}

func (t *SSTable) offset(row int) int64 {
	return int64(binary.BigEndian.Uint64(t.offsets[row*offsetSize:]))
}

func (t *SSTable) keyAt(row int) ([]byte, error) {
	return utils.DecodeKey(t.cells, t.offset(row))
}

func (t *SSTable) cellAt(row int) (domain.Cell, error) {
	return utils.DecodeCell(t.cells, t.offset(row))
}

// search returns the first row whose key compares >= key, or > key when
// strict is set.
func (t *SSTable) search(key []byte, strict bool) (int, error) {
	var err error
	row := sort.Search(t.rows, func(i int) bool {
		if err != nil {
			return true
		}
		k, e := t.keyAt(i)
		if e != nil {
			err = e
			return true
		}
		c := bytes.Compare(k, key)
		return c > 0 || (c == 0 && !strict)
	})
	return row, err
}

// Iterator positions at the first key >= from (match or successor).
func (t *SSTable) Iterator(from []byte) Iterator {
	if from == nil {
		return &tableIterator{table: t, row: -1, step: 1}
	}
	row, err := t.search(from, false)
	return &tableIterator{table: t, row: row - 1, step: 1, err: err}
}

// DescendingIterator positions at the last key <= from (match or
// predecessor). A nil from starts at the last row.
func (t *SSTable) DescendingIterator(from []byte) Iterator {
	if from == nil {
		return &tableIterator{table: t, row: t.rows, step: -1}
	}
	row, err := t.search(from, true)
	return &tableIterator{table: t, row: row, step: -1, err: err}
}

type tableIterator struct {
	table *SSTable
	row   int
	step  int
	cell  domain.Cell
	err   error
}

func (it *tableIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.row += it.step
	if it.row < 0 || it.row >= it.table.rows {
		return false
	}
	it.cell, it.err = it.table.cellAt(it.row)
	return it.err == nil
}

func (it *tableIterator) Cell() domain.Cell {
	return it.cell
}

func (it *tableIterator) Err() error {
	return it.err
}
