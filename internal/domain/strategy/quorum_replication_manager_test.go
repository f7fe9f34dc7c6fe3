package strategy

import (
	"QuorumKV/internal/domain"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	nodeA = "http://localhost:8080"
	nodeB = "http://localhost:8081"
	nodeC = "http://localhost:8082"
)

type mockLocalReplica struct {
	mu       sync.Mutex
	response domain.ReplicatedResponse
	executed []domain.Operation
}

func (m *mockLocalReplica) Execute(_ context.Context, op domain.Operation) domain.ReplicatedResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, op)
	return m.response
}

func (m *mockLocalReplica) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.executed)
}

type replicaBehavior struct {
	response domain.ReplicatedResponse
	err      error
	hang     bool
}

type mockReplicaClient struct {
	mu        sync.Mutex
	behaviors map[string]replicaBehavior
	sent      []domain.Operation
}

func (m *mockReplicaClient) Send(ctx context.Context, node string, op domain.Operation) (domain.ReplicatedResponse, error) {
	m.mu.Lock()
	m.sent = append(m.sent, op)
	b := m.behaviors[node]
	m.mu.Unlock()
	if b.hang {
		<-ctx.Done()
		return domain.ReplicatedResponse{}, ctx.Err()
	}
	return b.response, b.err
}

func (m *mockReplicaClient) sentOps() []domain.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Operation(nil), m.sent...)
}

type mockObserver struct {
	mu       sync.Mutex
	statuses []string
	failed   []string
}

func (m *mockObserver) ObserveOperation(_, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func (m *mockObserver) ReplicaFailed(node string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, node)
}

var errUnreachable = errors.New("connection refused")

func newManager(t *testing.T, local *mockLocalReplica, client *mockReplicaClient) (*QuorumReplicationManager, *mockObserver) {
	t.Helper()
	topology, err := domain.NewStaticTopology([]string{nodeA, nodeB, nodeC}, nodeA)
	require.NoError(t, err)
	observer := &mockObserver{}
	return NewQuorumReplicationManager(topology, local, client, 50*time.Millisecond, observer, zaptest.NewLogger(t)), observer
}

func put(quorum domain.Quorum) domain.Operation {
	return domain.NewOperation(domain.MethodPut, []byte("key"), []byte("value"), quorum)
}

func TestQuorum_OneUnreachableReplicaStillSucceeds(t *testing.T) {
	local := &mockLocalReplica{response: domain.NewResponse(domain.StatusCreated)}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {response: domain.NewResponse(domain.StatusCreated)},
		nodeC: {err: errUnreachable},
	}}
	manager, _ := newManager(t, local, client)

	res := manager.Execute(context.Background(), put(domain.Quorum{Ack: 2, From: 3}))

	assert.Equal(t, domain.StatusCreated, res.Status)
}

func TestQuorum_TwoUnreachableReplicasFail(t *testing.T) {
	local := &mockLocalReplica{response: domain.NewResponse(domain.StatusCreated)}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {err: errUnreachable},
		nodeC: {hang: true},
	}}
	manager, observer := newManager(t, local, client)

	res := manager.Execute(context.Background(), put(domain.Quorum{Ack: 2, From: 3}))

	assert.Equal(t, domain.StatusNotEnoughReplicas, res.Status)
	assert.ElementsMatch(t, []string{nodeB, nodeC}, observer.failed)
	assert.Equal(t, []string{"504 Not Enough Replicas"}, observer.statuses)
}

func TestQuorum_ReplicaErrorStatusCountsAsFailure(t *testing.T) {
	local := &mockLocalReplica{response: domain.NewResponse(domain.StatusInternalError)}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {response: domain.NewResponse(domain.StatusInternalError)},
		nodeC: {response: domain.NewResponse(domain.StatusCreated)},
	}}
	manager, _ := newManager(t, local, client)

	res := manager.Execute(context.Background(), put(domain.Quorum{Ack: 2, From: 3}))

	assert.Equal(t, domain.StatusNotEnoughReplicas, res.Status)
}

func TestQuorum_ProxiedOperationRunsLocallyOnly(t *testing.T) {
	local := &mockLocalReplica{response: domain.NewResponse(domain.StatusCreated)}
	client := &mockReplicaClient{}
	manager, _ := newManager(t, local, client)

	res := manager.Execute(context.Background(), put(domain.Quorum{Ack: 3, From: 3}).AsProxy())

	assert.Equal(t, domain.StatusCreated, res.Status)
	assert.Equal(t, 1, local.calls())
	assert.Empty(t, client.sentOps())
}

func TestQuorum_ForwardedOperationsCarryProxyMarker(t *testing.T) {
	local := &mockLocalReplica{response: domain.NewResponse(domain.StatusAccepted)}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {response: domain.NewResponse(domain.StatusAccepted)},
		nodeC: {response: domain.NewResponse(domain.StatusAccepted)},
	}}
	manager, _ := newManager(t, local, client)
	op := domain.NewOperation(domain.MethodDelete, []byte("key"), nil, domain.Quorum{Ack: 3, From: 3})

	res := manager.Execute(context.Background(), op)

	assert.Equal(t, domain.StatusAccepted, res.Status)
	sent := client.sentOps()
	require.Len(t, sent, 2)
	for _, s := range sent {
		assert.True(t, s.Proxied)
		assert.Equal(t, op.Id, s.Id)
	}
	assert.Equal(t, 1, local.calls())
}

func TestQuorum_RejectsInvalidRequests(t *testing.T) {
	manager, _ := newManager(t, &mockLocalReplica{}, &mockReplicaClient{})
	ctx := context.Background()

	for _, q := range []domain.Quorum{{Ack: 3, From: 2}, {Ack: 0, From: 2}, {Ack: 2, From: 4}} {
		assert.Equal(t, domain.StatusBadRequest, manager.Execute(ctx, put(q)).Status, q.String())
	}
	empty := domain.NewOperation(domain.MethodGet, nil, nil, domain.Quorum{Ack: 1, From: 1})
	assert.Equal(t, domain.StatusBadRequest, manager.Execute(ctx, empty).Status)
}

func TestQuorum_ReadsReconcileByMajorityThenTimestamp(t *testing.T) {
	stale := domain.ReplicatedResponse{Status: domain.StatusOK, Payload: []byte("old"), Timestamp: 10}
	fresh := domain.ReplicatedResponse{Status: domain.StatusOK, Payload: []byte("new"), Timestamp: 20}
	local := &mockLocalReplica{response: stale}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {response: fresh},
		nodeC: {err: errUnreachable},
	}}
	manager, _ := newManager(t, local, client)
	get := domain.NewOperation(domain.MethodGet, []byte("key"), nil, domain.Quorum{Ack: 2, From: 3})

	res := manager.Execute(context.Background(), get)

	assert.Equal(t, fresh, res)
}

func TestQuorum_ReadSeesTombstoneOverOlderValue(t *testing.T) {
	removed := domain.ReplicatedResponse{Status: domain.StatusNotFound, Timestamp: 30}
	value := domain.ReplicatedResponse{Status: domain.StatusOK, Payload: []byte("v"), Timestamp: 10}
	local := &mockLocalReplica{response: removed}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {response: value},
		nodeC: {response: removed},
	}}
	manager, _ := newManager(t, local, client)
	get := domain.NewOperation(domain.MethodGet, []byte("key"), nil, domain.Quorum{Ack: 3, From: 3})

	res := manager.Execute(context.Background(), get)

	assert.Equal(t, removed, res)
}

func TestQuorum_DoesNotWaitForStragglers(t *testing.T) {
	local := &mockLocalReplica{response: domain.NewResponse(domain.StatusCreated)}
	client := &mockReplicaClient{behaviors: map[string]replicaBehavior{
		nodeB: {hang: true},
		nodeC: {hang: true},
	}}
	topology, err := domain.NewStaticTopology([]string{nodeA, nodeB, nodeC}, nodeA)
	require.NoError(t, err)
	manager := NewQuorumReplicationManager(topology, local, client, time.Hour, &mockObserver{}, zaptest.NewLogger(t))

	start := time.Now()
	res := manager.Execute(context.Background(), put(domain.Quorum{Ack: 1, From: 3}))

	assert.Equal(t, domain.StatusCreated, res.Status)
	assert.Less(t, time.Since(start), time.Second)
}
