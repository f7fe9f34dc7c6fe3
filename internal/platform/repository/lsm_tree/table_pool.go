package lsm_tree

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/metrics"
	"context"
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/maps/treemap"
	godsutils "github.com/emirpasic/gods/utils"
)

// flushQueueCapacity bounds the number of retired tables waiting for the
// worker. A full queue blocks writers.
const flushQueueCapacity = 2

// FlushRequest hands a retired in-memory table to the flush worker.
type FlushRequest struct {
	Generation int64
	Table      *Memtable
	Shutdown   bool
	Compaction bool

	done chan struct{}
	err  error
}

func newFlushRequest(generation int64, table *Memtable) *FlushRequest {
	return &FlushRequest{
		Generation: generation,
		Table:      table,
		done:       make(chan struct{}),
	}
}

// Wait blocks until the worker has handled the request.
func (r *FlushRequest) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TablePool owns the current in-memory table and the retired tables
// waiting to be flushed.
type TablePool struct {
	mu         sync.RWMutex
	current    *Memtable
	pending    *treemap.Map
	generation int64
	stopped    bool
	shutdown   *FlushRequest

	threshold int64
	requests  chan *FlushRequest
	// enqueueMu keeps requests in generation order on the queue
	enqueueMu  sync.Mutex
	compactMu  sync.Mutex
	compaction atomic.Pointer[FlushRequest]

	metrics *metrics.Metrics
}

func NewTablePool(generation, flushThreshold int64, m *metrics.Metrics) *TablePool {
	return &TablePool{
		current:    NewMemtable(),
		pending:    treemap.NewWith(godsutils.Int64Comparator),
		generation: generation,
		threshold:  flushThreshold,
		requests:   make(chan *FlushRequest, flushQueueCapacity),
		metrics:    m,
	}
}

func (p *TablePool) Upsert(key, payload []byte) error {
	return p.apply(func(mt *Memtable) { mt.Upsert(key, payload) })
}

func (p *TablePool) Remove(key []byte) error {
	return p.apply(func(mt *Memtable) { mt.Remove(key) })
}

// apply mutates the current table under the read lock so a retired table
// never receives writes once it is queued.
func (p *TablePool) apply(mutate func(*Memtable)) error {
	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return domain.ErrStopped
	}
	mutate(p.current)
	full := p.current.SizeInBytes() > p.threshold
	p.mu.RUnlock()
	if full {
		p.flushCurrent()
	}
	return nil
}

func (p *TablePool) flushCurrent() {
	p.enqueueMu.Lock()
	defer p.enqueueMu.Unlock()

	p.mu.Lock()
	if p.stopped || p.current.SizeInBytes() <= p.threshold {
		p.mu.Unlock()
		return
	}
	req := p.retire()
	p.mu.Unlock()

	p.requests <- req
}

// retire moves current into pending and starts a new generation. It must
// be called with mu held.
func (p *TablePool) retire() *FlushRequest {
	req := newFlushRequest(p.generation, p.current)
	p.pending.Put(p.generation, p.current)
	p.current = NewMemtable()
	p.generation++
	p.metrics.SetPendingTables(p.pending.Size())
	return req
}

// Compact retires the current table with a request that also compacts
// the on-disk tables. Concurrent calls share the request in flight.
func (p *TablePool) Compact() (*FlushRequest, error) {
	p.compactMu.Lock()
	defer p.compactMu.Unlock()
	if req := p.compaction.Load(); req != nil {
		return req, nil
	}

	p.enqueueMu.Lock()
	defer p.enqueueMu.Unlock()
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, domain.ErrStopped
	}
	req := p.retire()
	req.Compaction = true
	p.compaction.Store(req)
	p.mu.Unlock()

	p.requests <- req
	return req, nil
}

// Close retires the current table with the last request the worker
// handles. Calling it again returns the same request.
func (p *TablePool) Close() *FlushRequest {
	p.enqueueMu.Lock()
	defer p.enqueueMu.Unlock()
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return p.shutdown
	}
	p.stopped = true
	req := p.retire()
	req.Shutdown = true
	p.shutdown = req
	p.mu.Unlock()

	p.requests <- req
	return req
}

// Requests is the queue consumed by the flush worker.
func (p *TablePool) Requests() <-chan *FlushRequest {
	return p.requests
}

// Flushed completes req. On success the pending table of its generation
// is dropped; on failure it stays readable in memory.
func (p *TablePool) Flushed(req *FlushRequest, persisted bool, err error) {
	if persisted {
		p.mu.Lock()
		p.pending.Remove(req.Generation)
		n := p.pending.Size()
		p.mu.Unlock()
		p.metrics.SetPendingTables(n)
	}
	if req.Compaction {
		p.compaction.CompareAndSwap(req, nil)
	}
	req.err = err
	close(req.done)
}

// Iterators returns one iterator per in-memory table, newest first.
func (p *TablePool) Iterators(from []byte, descending bool) []Iterator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tables := make([]*Memtable, 0, 1+p.pending.Size())
	tables = append(tables, p.current)
	it := p.pending.Iterator()
	for it.End(); it.Prev(); {
		tables = append(tables, it.Value().(*Memtable))
	}
	iterators := make([]Iterator, 0, len(tables))
	for _, mt := range tables {
		if descending {
			iterators = append(iterators, mt.DescendingIterator(from))
		} else {
			iterators = append(iterators, mt.Iterator(from))
		}
	}
	return iterators
}

func (p *TablePool) Generation() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

func (p *TablePool) PendingTables() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pending.Size()
}
