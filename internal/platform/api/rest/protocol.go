// Package rest names the HTTP routes, parameters and headers shared by
// the node server and the clients that talk to it.
package rest

const (
	StatusPath   = "/v0/status"
	EntityPath   = "/v0/entity"
	EntitiesPath = "/v0/entities"
	CompactPath  = "/v0/admin/compact"
	MetricsPath  = "/metrics"

	IdParam       = "id"
	ReplicasParam = "replicas"
	StartParam    = "start"
	EndParam      = "end"
	OrderParam    = "order"

	// ProxyHeader marks a request forwarded by another replica.
	ProxyHeader     = "X-Replica-Proxy"
	TimestampHeader = "X-Timestamp"
	RequestIdHeader = "X-Request-Id"
)
