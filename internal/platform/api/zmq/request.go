package zmq

import (
	"QuorumKV/internal/domain"
	"fmt"
)

type ApiRequest struct {
	Id       string `json:"id,omitempty"`
	Method   string `json:"method"`
	Key      []byte `json:"key"`
	Value    []byte `json:"value,omitempty"`
	Replicas string `json:"replicas,omitempty"`
	Proxy    bool   `json:"proxy,omitempty"`
}

type ApiResponse struct {
	Status    int    `json:"status"`
	Value     []byte `json:"value,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewApiRequest(op domain.Operation) ApiRequest {
	return ApiRequest{
		Id:       op.Id,
		Method:   string(op.Method),
		Key:      op.Key,
		Value:    op.Payload,
		Replicas: op.Quorum.String(),
		Proxy:    op.Proxied,
	}
}

// Operation validates the request against a cluster of clusterSize nodes.
func (r ApiRequest) Operation(clusterSize int) (domain.Operation, error) {
	method, ok := domain.ParseMethod(r.Method)
	if !ok {
		return domain.Operation{}, fmt.Errorf("%w: unknown method %q", domain.ErrBadRequest, r.Method)
	}
	if len(r.Key) == 0 {
		return domain.Operation{}, fmt.Errorf("%w: empty key", domain.ErrBadRequest)
	}
	quorum, err := domain.ParseQuorum(r.Replicas, clusterSize)
	if err != nil {
		return domain.Operation{}, err
	}
	op := domain.NewOperation(method, r.Key, r.Value, quorum)
	if r.Id != "" {
		op.Id = r.Id
	}
	op.Proxied = r.Proxy
	return op, nil
}

func NewApiResponse(res domain.ReplicatedResponse) ApiResponse {
	return ApiResponse{
		Status:    res.Status.Code(),
		Value:     res.Payload,
		Timestamp: res.Timestamp,
	}
}

func (r ApiResponse) Replicated() (domain.ReplicatedResponse, error) {
	status, ok := domain.StatusFromCode(r.Status)
	if !ok {
		return domain.ReplicatedResponse{}, fmt.Errorf("unexpected status %d", r.Status)
	}
	return domain.ReplicatedResponse{
		Status:    status,
		Payload:   r.Value,
		Timestamp: r.Timestamp,
	}, nil
}
