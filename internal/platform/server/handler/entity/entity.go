package entity

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/api/rest"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type Coordinator interface {
	Execute(ctx context.Context, op domain.Operation) domain.ReplicatedResponse
	ClusterSize() int
}

// EntityHandler serves single key operations through the coordinator.
type EntityHandler struct {
	coordinator Coordinator
	logger      *zap.Logger
}

func NewEntityHandler(coordinator Coordinator, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		coordinator: coordinator,
		logger:      logger.Named("entity"),
	}
}

func (h *EntityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method, ok := domain.ParseMethod(r.Method)
	if !ok {
		writeStatus(w, domain.NewResponse(domain.StatusMethodNotAllowed))
		return
	}
	op, err := h.operation(method, r)
	if err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			h.logger.Debug("bad request", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Warn("reading request", zap.Error(err))
		writeStatus(w, domain.NewResponse(domain.StatusInternalError))
		return
	}
	writeStatus(w, h.coordinator.Execute(r.Context(), op))
}

func (h *EntityHandler) operation(method domain.Method, r *http.Request) (domain.Operation, error) {
	query := r.URL.Query()
	key := query.Get(rest.IdParam)
	if key == "" {
		return domain.Operation{}, fmt.Errorf("%w: missing id", domain.ErrBadRequest)
	}
	quorum, err := domain.ParseQuorum(query.Get(rest.ReplicasParam), h.coordinator.ClusterSize())
	if err != nil {
		return domain.Operation{}, err
	}
	var payload []byte
	if method == domain.MethodPut {
		if payload, err = io.ReadAll(r.Body); err != nil {
			return domain.Operation{}, err
		}
	}
	op := domain.NewOperation(method, []byte(key), payload, quorum)
	if r.Header.Get(rest.ProxyHeader) == "true" {
		op.Proxied = true
		if id := r.Header.Get(rest.RequestIdHeader); id != "" {
			op.Id = id
		}
	}
	return op, nil
}

func writeStatus(w http.ResponseWriter, res domain.ReplicatedResponse) {
	if res.Timestamp != domain.NoTimestamp {
		w.Header().Set(rest.TimestampHeader, strconv.FormatInt(res.Timestamp, 10))
	}
	if res.Status == domain.StatusOK {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(res.Payload)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(res.Status.Code())
	io.WriteString(w, res.Status.String())
}
