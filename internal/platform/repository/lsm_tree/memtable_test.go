package lsm_tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemtable_SizeAccounting(t *testing.T) {
	mt := NewMemtable()

	mt.Upsert([]byte("key"), []byte("12345"))
	assert.Equal(t, int64(3+5), mt.SizeInBytes(), "new key adds key and value")

	mt.Upsert([]byte("key"), []byte("12"))
	assert.Equal(t, int64(3+2), mt.SizeInBytes(), "overwrite adds the difference")

	mt.Remove([]byte("key"))
	assert.Equal(t, int64(3), mt.SizeInBytes(), "tombstone over a value subtracts it")

	mt.Remove([]byte("key"))
	assert.Equal(t, int64(3), mt.SizeInBytes(), "tombstone over a tombstone is free")

	mt.Upsert([]byte("key"), []byte("1234"))
	assert.Equal(t, int64(3+4), mt.SizeInBytes(), "value over a tombstone adds the value")

	mt.Remove([]byte("gone"))
	assert.Equal(t, int64(3+4+4), mt.SizeInBytes(), "tombstone for a new key adds the key")
	assert.Equal(t, int64(2), mt.Len())
}

func TestMemtable_RemoveWritesTombstone(t *testing.T) {
	mt := NewMemtable()
	mt.Upsert([]byte("k"), []byte("v"))
	before, _ := mt.Get([]byte("k"))
	mt.Remove([]byte("k"))

	got, ok := mt.Get([]byte("k"))
	assert.True(t, ok)
	assert.True(t, got.IsTombstone())
	assert.Greater(t, got.Timestamp(), before.Timestamp())
}

func TestMemtable_CopiesCallerBuffers(t *testing.T) {
	mt := NewMemtable()
	key := []byte("k")
	payload := []byte("v")
	mt.Upsert(key, payload)
	key[0], payload[0] = 'x', 'x'

	got, ok := mt.Get([]byte("k"))
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got.Payload())
}

func TestMemtable_Iterators(t *testing.T) {
	mt := NewMemtable()
	for _, k := range []string{"b", "a", "c"} {
		mt.Upsert([]byte(k), []byte(k))
	}

	assert.Equal(t, []string{"b", "c"}, collectKeys(mt.Iterator([]byte("b"))))
	assert.Equal(t, []string{"b", "a"}, collectKeys(mt.DescendingIterator([]byte("b"))))
}
