package service

import (
	"QuorumKV/internal/domain"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockStorage struct {
	cells     map[string]domain.Cell
	failWith  error
	compacted int
}

func newMockStorage() *mockStorage {
	return &mockStorage{cells: map[string]domain.Cell{}}
}

func (m *mockStorage) Get(key []byte) (domain.Cell, error) {
	if m.failWith != nil {
		return domain.Cell{}, m.failWith
	}
	cell, ok := m.cells[string(key)]
	if !ok {
		return domain.Cell{}, domain.ErrNotFound
	}
	return cell, nil
}

func (m *mockStorage) Upsert(key, payload []byte) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.cells[string(key)] = domain.NewCell(key, domain.NewValue(domain.Now(), payload))
	return nil
}

func (m *mockStorage) Remove(key []byte) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.cells[string(key)] = domain.NewCell(key, domain.NewTombstone(domain.Now()))
	return nil
}

func (m *mockStorage) Range(start, end []byte) (domain.RecordIterator, error) {
	return nil, errors.New("not supported")
}

func (m *mockStorage) DescendingRange(from, to []byte) (domain.RecordIterator, error) {
	return nil, errors.New("not supported")
}

func (m *mockStorage) Compact(ctx context.Context) error {
	m.compacted++
	return m.failWith
}

func localReplica(storage domain.Storage) *LocalReplicaService {
	logger := zap.NewNop()
	return NewLocalReplicaService(
		NewGetEntryService(storage, logger),
		NewSaveEntryService(storage, logger),
		NewDeleteEntryService(storage, logger))
}

func TestLocalReplicaService_PutGetDelete(t *testing.T) {
	replica := localReplica(newMockStorage())
	ctx := context.Background()
	q := domain.Quorum{Ack: 1, From: 1}

	res := replica.Execute(ctx, domain.NewOperation(domain.MethodPut, []byte("k"), []byte("v"), q))
	assert.Equal(t, domain.StatusCreated, res.Status)

	res = replica.Execute(ctx, domain.NewOperation(domain.MethodGet, []byte("k"), nil, q))
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, []byte("v"), res.Payload)
	assert.Positive(t, res.Timestamp)

	res = replica.Execute(ctx, domain.NewOperation(domain.MethodDelete, []byte("k"), nil, q))
	assert.Equal(t, domain.StatusAccepted, res.Status)

	res = replica.Execute(ctx, domain.NewOperation(domain.MethodGet, []byte("k"), nil, q))
	assert.Equal(t, domain.StatusNotFound, res.Status)
	assert.Positive(t, res.Timestamp, "removed keys keep their tombstone timestamp")
}

func TestGetEntryService_MissingKeyHasNoTimestamp(t *testing.T) {
	res := NewGetEntryService(newMockStorage(), zap.NewNop()).Execute(GetEntryQuery{Key: []byte("k")})

	assert.Equal(t, domain.StatusNotFound, res.Status)
	assert.Equal(t, domain.NoTimestamp, res.Timestamp)
}

func TestLocalReplicaService_StorageFailuresAreInternalErrors(t *testing.T) {
	storage := newMockStorage()
	storage.failWith = errors.New("disk on fire")
	replica := localReplica(storage)
	ctx := context.Background()

	for _, m := range []domain.Method{domain.MethodGet, domain.MethodPut, domain.MethodDelete} {
		res := replica.Execute(ctx, domain.NewOperation(m, []byte("k"), []byte("v"), domain.Quorum{}))
		assert.Equal(t, domain.StatusInternalError, res.Status, m)
	}
}

func TestCompactService(t *testing.T) {
	storage := newMockStorage()
	assert.NoError(t, NewCompactService(storage, zap.NewNop()).Execute(context.Background()))
	assert.Equal(t, 1, storage.compacted)
}
