package client

import (
	"QuorumKV/internal/domain"
	zmqapi "QuorumKV/internal/platform/api/zmq"
	"QuorumKV/internal/platform/config"
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type echoCoordinator struct {
	mu  sync.Mutex
	ops []domain.Operation
}

func (c *echoCoordinator) Execute(_ context.Context, op domain.Operation) domain.ReplicatedResponse {
	c.mu.Lock()
	c.ops = append(c.ops, op)
	c.mu.Unlock()
	if op.Method == domain.MethodGet {
		return domain.ReplicatedResponse{Status: domain.StatusOK, Payload: []byte("v-" + string(op.Key)), Timestamp: 7}
	}
	return domain.NewResponse(op.Method.SuccessStatus())
}

func (c *echoCoordinator) ClusterSize() int {
	return 3
}

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestZmqEndpoint(t *testing.T) {
	endpoint, err := ZmqEndpoint("http://localhost:8080/", 1000)
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:9080", endpoint)

	_, err = ZmqEndpoint("http://localhost", 1000)
	assert.Error(t, err)
}

func TestZmqReplicaClient_RoundTrip(t *testing.T) {
	port := freePort(t)
	coordinator := &echoCoordinator{}
	api := zmqapi.NewZmqApi(config.Config{ServerPort: port}, coordinator, zaptest.NewLogger(t))
	require.NoError(t, api.Listen())
	defer api.Close()

	client := NewZmqReplicaClient(0)
	node := fmt.Sprintf("http://127.0.0.1:%d", port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	put := domain.NewOperation(domain.MethodPut, []byte("k"), []byte("v"), domain.Quorum{Ack: 2, From: 3}).AsProxy()
	res, err := client.Send(ctx, node, put)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, res.Status)

	get := domain.NewOperation(domain.MethodGet, []byte("k"), nil, domain.Quorum{Ack: 2, From: 3}).AsProxy()
	res, err = client.Send(ctx, node, get)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, "v-k", string(res.Payload))
	assert.Equal(t, int64(7), res.Timestamp)

	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	require.Len(t, coordinator.ops, 2)
	assert.Equal(t, put.Id, coordinator.ops[0].Id)
	assert.True(t, coordinator.ops[0].Proxied)
	assert.Equal(t, "v", string(coordinator.ops[0].Payload))
	assert.Equal(t, domain.Quorum{Ack: 2, From: 3}, coordinator.ops[1].Quorum)
}

func TestZmqReplicaClient_BadRequest(t *testing.T) {
	port := freePort(t)
	api := zmqapi.NewZmqApi(config.Config{ServerPort: port}, &echoCoordinator{}, zaptest.NewLogger(t))
	require.NoError(t, api.Listen())
	defer api.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	op := domain.NewOperation(domain.MethodGet, []byte("k"), nil, domain.Quorum{Ack: 4, From: 4})
	res, err := NewZmqReplicaClient(0).Send(ctx, fmt.Sprintf("http://127.0.0.1:%d", port), op)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBadRequest, res.Status)
}

func TestZmqReplicaClient_NoListener(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	op := domain.NewOperation(domain.MethodGet, []byte("k"), nil, domain.Quorum{Ack: 1, From: 1})
	_, err := NewZmqReplicaClient(0).Send(ctx, fmt.Sprintf("http://127.0.0.1:%d", port), op)
	assert.Error(t, err)
}
