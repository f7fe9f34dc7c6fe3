package strategy

import (
	"QuorumKV/internal/domain"
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "QuorumKV/internal/domain/strategy"

// LocalReplica executes an operation against the storage of this node.
type LocalReplica interface {
	Execute(ctx context.Context, op domain.Operation) domain.ReplicatedResponse
}

// ReplicaClient forwards an operation to another node. An error means
// the node did not answer.
type ReplicaClient interface {
	Send(ctx context.Context, node string, op domain.Operation) (domain.ReplicatedResponse, error)
}

type OperationObserver interface {
	ObserveOperation(method, status string)
	ReplicaFailed(node string)
}

// QuorumReplicationManager fans an operation out to the replica set of
// its key and answers once Ack replicas agree.
type QuorumReplicationManager struct {
	topology domain.Topology
	local    LocalReplica
	client   ReplicaClient
	timeout  time.Duration
	observer OperationObserver
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewQuorumReplicationManager(topology domain.Topology, local LocalReplica, client ReplicaClient,
	timeout time.Duration, observer OperationObserver, logger *zap.Logger) *QuorumReplicationManager {
	return &QuorumReplicationManager{
		topology: topology,
		local:    local,
		client:   client,
		timeout:  timeout,
		observer: observer,
		logger:   logger.Named("replication"),
		tracer:   otel.Tracer(tracerName),
	}
}

type replicaResult struct {
	node     string
	response domain.ReplicatedResponse
	err      error
}

func (m *QuorumReplicationManager) ClusterSize() int {
	return len(m.topology.All())
}

func (m *QuorumReplicationManager) Execute(ctx context.Context, op domain.Operation) domain.ReplicatedResponse {
	ctx, span := m.tracer.Start(ctx, "replicate "+string(op.Method), trace.WithAttributes(
		attribute.String("operation.id", op.Id),
		attribute.String("quorum", op.Quorum.String()),
		attribute.Bool("proxied", op.Proxied),
	))
	defer span.End()

	res := m.execute(ctx, op)

	span.SetAttributes(attribute.Int("status", res.Status.Code()))
	if res.Status == domain.StatusNotEnoughReplicas || res.Status == domain.StatusInternalError {
		span.SetStatus(codes.Error, res.Status.String())
	}
	m.observer.ObserveOperation(string(op.Method), res.Status.String())
	return res
}

func (m *QuorumReplicationManager) execute(ctx context.Context, op domain.Operation) domain.ReplicatedResponse {
	if len(op.Key) == 0 {
		return domain.NewResponse(domain.StatusBadRequest)
	}
	if err := op.Quorum.Validate(m.ClusterSize()); err != nil {
		m.logger.Debug("rejected quorum", zap.String("operation", op.Id), zap.Error(err))
		return domain.NewResponse(domain.StatusBadRequest)
	}
	if op.Proxied {
		return m.local.Execute(ctx, op)
	}
	nodes, err := m.topology.ReplicaSet(op.Key, op.Quorum.From)
	if err != nil {
		return domain.NewResponse(domain.StatusBadRequest)
	}

	results := make(chan replicaResult, len(nodes))
	// replicas that answer after the quorum is decided still run to completion
	callCtx := context.WithoutCancel(ctx)
	for _, node := range nodes {
		go m.call(callCtx, node, op, results)
	}
	return m.collect(ctx, op, results, len(nodes))
}

func (m *QuorumReplicationManager) call(ctx context.Context, node string, op domain.Operation,
	results chan<- replicaResult) {
	if m.topology.IsMe(node) {
		results <- replicaResult{node: node, response: m.local.Execute(ctx, op)}
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	ctx, span := m.tracer.Start(ctx, "proxy "+string(op.Method), trace.WithAttributes(
		attribute.String("replica", node),
	))
	defer span.End()

	res, err := m.client.Send(ctx, node, op.AsProxy())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replica unavailable")
	}
	results <- replicaResult{node: node, response: res, err: err}
}

func (m *QuorumReplicationManager) collect(ctx context.Context, op domain.Operation,
	results <-chan replicaResult, total int) domain.ReplicatedResponse {
	successes := make([]domain.ReplicatedResponse, 0, op.Quorum.Ack)
	failures := 0
	for received := 0; received < total; received++ {
		select {
		case r := <-results:
			if r.err != nil || !op.Method.Accepts(r.response.Status) {
				failures++
				m.observer.ReplicaFailed(r.node)
				m.logger.Debug("replica failed",
					zap.String("operation", op.Id),
					zap.String("replica", r.node),
					zap.Int("status", r.response.Status.Code()),
					zap.Error(r.err))
				if failures >= op.Quorum.MaxFailures() {
					return m.notEnoughReplicas(op, len(successes), failures)
				}
				continue
			}
			successes = append(successes, r.response)
			if len(successes) == op.Quorum.Ack {
				if op.Method.IsWrite() {
					return domain.NewResponse(op.Method.SuccessStatus())
				}
				return domain.Reconcile(successes)
			}
		case <-ctx.Done():
			return m.notEnoughReplicas(op, len(successes), failures)
		}
	}
	return m.notEnoughReplicas(op, len(successes), failures)
}

func (m *QuorumReplicationManager) notEnoughReplicas(op domain.Operation, acks, failures int) domain.ReplicatedResponse {
	m.logger.Warn("quorum not reached",
		zap.String("operation", op.Id),
		zap.String("method", string(op.Method)),
		zap.String("quorum", op.Quorum.String()),
		zap.Int("acks", acks),
		zap.Int("failures", failures))
	return domain.NewResponse(domain.StatusNotEnoughReplicas)
}
