package client

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/api/rest"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HttpReplicaClient forwards operations to the HTTP API of other nodes.
type HttpReplicaClient struct {
	client *resty.Client
}

func NewHttpReplicaClient(timeout time.Duration) *HttpReplicaClient {
	return &HttpReplicaClient{
		client: resty.New().SetTimeout(timeout),
	}
}

func (c *HttpReplicaClient) Send(ctx context.Context, node string, op domain.Operation) (domain.ReplicatedResponse, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam(rest.IdParam, string(op.Key)).
		SetQueryParam(rest.ReplicasParam, op.Quorum.String()).
		SetHeader(rest.RequestIdHeader, op.Id)
	if op.Proxied {
		req.SetHeader(rest.ProxyHeader, "true")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	uri := strings.TrimRight(node, "/") + rest.EntityPath
	var resp *resty.Response
	var err error
	switch op.Method {
	case domain.MethodGet:
		resp, err = req.Get(uri)
	case domain.MethodPut:
		resp, err = req.SetBody(op.Payload).Put(uri)
	case domain.MethodDelete:
		resp, err = req.Delete(uri)
	default:
		return domain.ReplicatedResponse{}, fmt.Errorf("unsupported method %q", op.Method)
	}
	if err != nil {
		return domain.ReplicatedResponse{}, err
	}
	return toReplicatedResponse(resp)
}

func toReplicatedResponse(resp *resty.Response) (domain.ReplicatedResponse, error) {
	status, ok := domain.StatusFromCode(resp.StatusCode())
	if !ok {
		return domain.ReplicatedResponse{}, fmt.Errorf("unexpected status %s", resp.Status())
	}
	res := domain.NewResponse(status)
	if raw := resp.Header().Get(rest.TimestampHeader); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.ReplicatedResponse{}, fmt.Errorf("malformed %s header %q", rest.TimestampHeader, raw)
		}
		res.Timestamp = ts
	}
	if status == domain.StatusOK {
		res.Payload = resp.Body()
	}
	return res, nil
}

// AdminClient calls the maintenance endpoints of a node.
type AdminClient struct {
	client  *resty.Client
	nodeUrl string
}

func NewAdminClient(nodeUrl string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		client:  resty.New().SetTimeout(timeout),
		nodeUrl: strings.TrimRight(nodeUrl, "/"),
	}
}

func (c *AdminClient) Compact(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Post(c.nodeUrl + rest.CompactPath)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("compact: %s: %s", resp.Status(), resp.String())
	}
	return nil
}

func (c *AdminClient) Status(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get(c.nodeUrl + rest.StatusPath)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("status: %s", resp.Status())
	}
	return nil
}
