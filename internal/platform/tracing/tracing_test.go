package tracing

import (
	"QuorumKV/internal/platform/config"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_PropagatesContext(t *testing.T) {
	tp, err := NewTracerProvider(config.Config{ServiceName: "test", SelfUrl: "http://localhost:8080"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer Shutdown(context.Background(), tp)

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	assert.NotEmpty(t, header.Get("traceparent"))

	extracted := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(header))
	_, child := otel.Tracer("test").Start(extracted, "child")
	defer child.End()
	assert.Equal(t, span.SpanContext().TraceID(), child.SpanContext().TraceID())
}

func TestShutdown_Nil(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background(), nil))
}
