package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile_MajorityWins(t *testing.T) {
	fresh := ReplicatedResponse{Status: StatusOK, Payload: []byte("v2"), Timestamp: 20}
	stale := ReplicatedResponse{Status: StatusOK, Payload: []byte("v1"), Timestamp: 10}

	res := Reconcile([]ReplicatedResponse{stale, fresh, stale})

	assert.Equal(t, stale, res)
}

func TestReconcile_TieBrokenByTimestamp(t *testing.T) {
	value := ReplicatedResponse{Status: StatusOK, Payload: []byte("v"), Timestamp: 5}
	removed := ReplicatedResponse{Status: StatusNotFound, Timestamp: 7}
	missing := NewResponse(StatusNotFound)

	assert.Equal(t, removed, Reconcile([]ReplicatedResponse{value, removed}))
	assert.Equal(t, value, Reconcile([]ReplicatedResponse{missing, value}))
}

func TestReconcile_ComparesPayloadBytes(t *testing.T) {
	a := ReplicatedResponse{Status: StatusOK, Payload: []byte("same"), Timestamp: 1}
	b := ReplicatedResponse{Status: StatusOK, Payload: []byte("same"), Timestamp: 1}
	c := ReplicatedResponse{Status: StatusOK, Payload: []byte("other"), Timestamp: 2}

	assert.Equal(t, a, Reconcile([]ReplicatedResponse{c, a, b}))
}

func TestReconcile_Empty(t *testing.T) {
	assert.Equal(t, StatusInternalError, Reconcile(nil).Status)
}

func TestResponseFromCell(t *testing.T) {
	hit := ResponseFromCell(NewCell([]byte("k"), NewValue(3, []byte("v"))))
	assert.Equal(t, ReplicatedResponse{Status: StatusOK, Payload: []byte("v"), Timestamp: 3}, hit)

	removed := ResponseFromCell(NewCell([]byte("k"), NewTombstone(4)))
	assert.Equal(t, ReplicatedResponse{Status: StatusNotFound, Timestamp: 4}, removed)
}

func TestMethod_Accepts(t *testing.T) {
	assert.True(t, MethodGet.Accepts(StatusOK))
	assert.True(t, MethodGet.Accepts(StatusNotFound))
	assert.False(t, MethodGet.Accepts(StatusInternalError))
	assert.True(t, MethodPut.Accepts(StatusCreated))
	assert.False(t, MethodPut.Accepts(StatusOK))
	assert.True(t, MethodDelete.Accepts(StatusAccepted))
}
