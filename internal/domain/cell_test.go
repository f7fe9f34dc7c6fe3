package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareCells_OrdersByKeyThenNewestFirst(t *testing.T) {
	older := NewCell([]byte("k"), NewValue(1, []byte("v1")))
	newer := NewCell([]byte("k"), NewValue(2, []byte("v2")))
	other := NewCell([]byte("l"), NewValue(0, []byte("v")))

	assert.Equal(t, -1, CompareCells(newer, older))
	assert.Equal(t, 1, CompareCells(older, newer))
	assert.Equal(t, -1, CompareCells(older, other))
	assert.Equal(t, 0, CompareCells(older, older))
}

func TestValue_SizeIgnoresTombstonePayload(t *testing.T) {
	assert.Equal(t, int64(3), NewValue(1, []byte("abc")).Size())
	assert.Equal(t, int64(0), NewTombstone(1).Size())
	assert.True(t, NewTombstone(1).IsTombstone())
	assert.Nil(t, NewTombstone(1).Payload())
}

func TestCell_DetachCopiesBytes(t *testing.T) {
	key := []byte("key")
	payload := []byte("payload")
	detached := NewCell(key, NewValue(7, payload)).Detach()

	key[0] = 'X'
	payload[0] = 'X'

	assert.Equal(t, []byte("key"), detached.Key())
	assert.Equal(t, []byte("payload"), detached.Value().Payload())
	assert.Equal(t, int64(7), detached.Value().Timestamp())
}

func TestNow_IsStrictlyIncreasing(t *testing.T) {
	prev := Now()
	for range 1000 {
		next := Now()
		assert.Greater(t, next, prev)
		prev = next
	}
}
