package lsm_tree

import (
	"QuorumKV/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellsOf(ts int64, keysAndValues ...string) []domain.Cell {
	var cells []domain.Cell
	for i := 0; i < len(keysAndValues); i += 2 {
		cells = append(cells, domain.NewCell([]byte(keysAndValues[i]), domain.NewValue(ts, []byte(keysAndValues[i+1]))))
	}
	return cells
}

func TestMergeIterator_NewestTimestampWins(t *testing.T) {
	older := NewSliceIterator(cellsOf(1, "a", "old-a", "b", "old-b", "d", "old-d"))
	newer := NewSliceIterator(cellsOf(2, "b", "new-b", "c", "new-c"))

	merged := collectCells(t, NewMergeIterator([]Iterator{older, newer}, false))

	require.Len(t, merged, 4)
	expected := map[string]string{"a": "old-a", "b": "new-b", "c": "new-c", "d": "old-d"}
	for _, c := range merged {
		assert.Equal(t, expected[string(c.Key())], string(c.Value().Payload()))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{
		string(merged[0].Key()), string(merged[1].Key()), string(merged[2].Key()), string(merged[3].Key()),
	})
}

func TestMergeIterator_TombstoneShadowsOlderValue(t *testing.T) {
	value := NewSliceIterator(cellsOf(1, "k", "v"))
	removed := NewSliceIterator([]domain.Cell{domain.NewCell([]byte("k"), domain.NewTombstone(2))})

	merged := collectCells(t, NewMergeIterator([]Iterator{value, removed}, false))

	require.Len(t, merged, 1)
	assert.True(t, merged[0].Value().IsTombstone())
}

func TestMergeIterator_EqualTimestampsPreferFirstSource(t *testing.T) {
	first := NewSliceIterator(cellsOf(5, "k", "first"))
	second := NewSliceIterator(cellsOf(5, "k", "second"))

	merged := collectCells(t, NewMergeIterator([]Iterator{first, second}, false))

	require.Len(t, merged, 1)
	assert.Equal(t, "first", string(merged[0].Value().Payload()))
}

func TestMergeIterator_Descending(t *testing.T) {
	a := NewSkipList()
	b := NewSkipList()
	a.Put([]byte("a"), value(1, "1"))
	a.Put([]byte("c"), value(1, "1"))
	b.Put([]byte("b"), value(2, "2"))
	b.Put([]byte("c"), value(2, "2"))

	merged := collectCells(t, NewMergeIterator([]Iterator{a.DescendingIterator(nil), b.DescendingIterator(nil)}, true))

	require.Len(t, merged, 3)
	assert.Equal(t, "c", string(merged[0].Key()))
	assert.Equal(t, int64(2), merged[0].Value().Timestamp())
	assert.Equal(t, "b", string(merged[1].Key()))
	assert.Equal(t, "a", string(merged[2].Key()))
}

func TestMergeIterator_NoSources(t *testing.T) {
	assert.False(t, NewMergeIterator(nil, false).Next())
}
