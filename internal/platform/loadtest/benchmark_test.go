package loadtest

import (
	"QuorumKV/internal/domain"
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	calls atomic.Int64
	fail  bool
}

func (f *fakeSender) Send(_ context.Context, _ string, op domain.Operation) (domain.ReplicatedResponse, error) {
	f.calls.Add(1)
	time.Sleep(100 * time.Microsecond)
	if f.fail {
		return domain.ReplicatedResponse{}, errors.New("unreachable")
	}
	if op.Method == domain.MethodGet {
		return domain.NewResponse(domain.StatusNotFound), nil
	}
	return domain.NewResponse(op.Method.SuccessStatus()), nil
}

func TestBenchmark_Run(t *testing.T) {
	sender := &fakeSender{}
	stats := NewBenchmark(sender, Options{
		Node:     "http://localhost:8080",
		Workers:  4,
		Duration: 100 * time.Millisecond,
		Timeout:  time.Second,
		Quorum:   domain.Quorum{Ack: 1, From: 1},
	}).Run(context.Background())

	require.Positive(t, stats.Total())
	assert.Equal(t, stats.Total(), stats.Succeeded())
	assert.InDelta(t, 100, stats.SuccessRate(), 0.001)
	assert.Positive(t, stats.RPS())
	assert.LessOrEqual(t, stats.Percentile(0.5), stats.Percentile(0.99))

	out := &bytes.Buffer{}
	stats.Report(out)
	assert.Contains(t, out.String(), "requests:")
}

func TestBenchmark_CountsFailures(t *testing.T) {
	stats := NewBenchmark(&fakeSender{fail: true}, Options{
		Workers:  2,
		Duration: 50 * time.Millisecond,
		Timeout:  time.Second,
		Quorum:   domain.Quorum{Ack: 1, From: 1},
	}).Run(context.Background())

	require.Positive(t, stats.Total())
	assert.Zero(t, stats.Succeeded())
	assert.Zero(t, stats.SuccessRate())
}

func TestStats_Empty(t *testing.T) {
	var stats Stats
	assert.Zero(t, stats.Percentile(0.99))
	assert.Zero(t, stats.RPS())
	assert.Zero(t, stats.SuccessRate())
}
