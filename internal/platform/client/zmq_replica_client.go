package client

import (
	"QuorumKV/internal/domain"
	zmqapi "QuorumKV/internal/platform/api/zmq"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
)

// ZmqReplicaClient forwards operations to the ZMQ API of other nodes.
// Each call uses its own REQ socket.
type ZmqReplicaClient struct {
	portOffset int
}

func NewZmqReplicaClient(portOffset int) *ZmqReplicaClient {
	return &ZmqReplicaClient{
		portOffset: portOffset,
	}
}

// ZmqEndpoint derives the ZMQ address of a node from its HTTP url.
func ZmqEndpoint(node string, portOffset int) (string, error) {
	u, err := url.Parse(node)
	if err != nil {
		return "", err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return "", fmt.Errorf("node %q has no port", node)
	}
	return fmt.Sprintf("tcp://%s:%d", u.Hostname(), port+portOffset), nil
}

type zmqResult struct {
	msg zmq4.Msg
	err error
}

func (c *ZmqReplicaClient) Send(ctx context.Context, node string, op domain.Operation) (domain.ReplicatedResponse, error) {
	endpoint, err := ZmqEndpoint(node, c.portOffset)
	if err != nil {
		return domain.ReplicatedResponse{}, err
	}
	payload, err := json.Marshal(zmqapi.NewApiRequest(op))
	if err != nil {
		return domain.ReplicatedResponse{}, err
	}

	socket := zmq4.NewReq(ctx, zmq4.WithDialerRetry(50*time.Millisecond))
	defer socket.Close()

	results := make(chan zmqResult, 1)
	go func() {
		if err := socket.Dial(endpoint); err != nil {
			results <- zmqResult{err: fmt.Errorf("dial %s: %w", endpoint, err)}
			return
		}
		if err := socket.Send(zmq4.NewMsg(payload)); err != nil {
			results <- zmqResult{err: fmt.Errorf("send %s: %w", endpoint, err)}
			return
		}
		msg, err := socket.Recv()
		results <- zmqResult{msg: msg, err: err}
	}()

	select {
	case r := <-results:
		if r.err != nil {
			return domain.ReplicatedResponse{}, r.err
		}
		if len(r.msg.Frames) == 0 {
			return domain.ReplicatedResponse{}, fmt.Errorf("empty reply from %s", endpoint)
		}
		var resp zmqapi.ApiResponse
		if err := json.Unmarshal(r.msg.Frames[len(r.msg.Frames)-1], &resp); err != nil {
			return domain.ReplicatedResponse{}, err
		}
		return resp.Replicated()
	case <-ctx.Done():
		return domain.ReplicatedResponse{}, ctx.Err()
	}
}
