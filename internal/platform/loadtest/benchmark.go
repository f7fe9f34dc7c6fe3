// Package loadtest drives a random mix of operations against a node and
// reports latency percentiles.
package loadtest

import (
	"QuorumKV/internal/domain"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

type Sender interface {
	Send(ctx context.Context, node string, op domain.Operation) (domain.ReplicatedResponse, error)
}

type Options struct {
	Node     string
	Workers  int
	Duration time.Duration
	Timeout  time.Duration
	Keys     int
	Quorum   domain.Quorum
}

type Benchmark struct {
	sender Sender
	opts   Options
}

func NewBenchmark(sender Sender, opts Options) *Benchmark {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Keys <= 0 {
		opts.Keys = 1000
	}
	return &Benchmark{
		sender: sender,
		opts:   opts,
	}
}

// Run blocks until the duration elapses or ctx is cancelled.
func (b *Benchmark) Run(ctx context.Context) *Stats {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Duration)
	defer cancel()

	stats := &Stats{start: time.Now()}
	var wg sync.WaitGroup
	for id := 0; id < b.opts.Workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.worker(ctx, id, stats)
		}()
	}
	wg.Wait()
	stats.mu.Lock()
	stats.end = time.Now()
	stats.mu.Unlock()
	return stats
}

var methods = []domain.Method{domain.MethodPut, domain.MethodGet, domain.MethodDelete}

func (b *Benchmark) worker(ctx context.Context, id int, stats *Stats) {
	for ctx.Err() == nil {
		method := methods[rand.IntN(len(methods))]
		key := fmt.Sprintf("key_%d_%d", id, rand.IntN(b.opts.Keys))
		var payload []byte
		if method == domain.MethodPut {
			payload = fmt.Appendf(nil, "value_%d_%d", id, rand.IntN(b.opts.Keys))
		}
		op := domain.NewOperation(method, []byte(key), payload, b.opts.Quorum)

		callCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
		start := time.Now()
		res, err := b.sender.Send(callCtx, b.opts.Node, op)
		latency := time.Since(start)
		cancel()
		if ctx.Err() != nil && err != nil {
			// the run ended mid request
			return
		}
		stats.add(latency, err == nil && method.Accepts(res.Status), errors.Is(err, context.DeadlineExceeded))
	}
}
