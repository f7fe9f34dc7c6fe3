package lsm_tree

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/metrics"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	Directory           string
	FlushThresholdBytes int64
	FlushRetries        int
	FlushRetryBackoff   time.Duration
}

// Engine is the local LSM storage engine. Reads merge the in-memory
// tables of the pool with every on-disk table.
type Engine struct {
	dir      string
	pool     *TablePool
	registry *TableRegistry
	cancel   context.CancelFunc
	stopped  chan struct{}
	closed   atomic.Bool
	closeMu  sync.Mutex
	closeErr error
	logger   *zap.Logger
}

func Open(opts Options, logger *zap.Logger, m *metrics.Metrics) (*Engine, error) {
	if opts.FlushThresholdBytes <= 0 {
		return nil, errors.Errorf("flush threshold must be positive, got %d", opts.FlushThresholdBytes)
	}
	if opts.FlushRetryBackoff <= 0 {
		opts.FlushRetryBackoff = 100 * time.Millisecond
	}
	if err := os.MkdirAll(opts.Directory, 0755); err != nil {
		return nil, errors.Wrapf(err, "create %s", opts.Directory)
	}
	registry, err := loadTables(opts.Directory, logger)
	if err != nil {
		return nil, err
	}
	m.SetDiskTables(registry.Len())

	pool := NewTablePool(registry.MaxGeneration()+1, opts.FlushThresholdBytes, m)
	worker := NewFlushWorker(opts.Directory, pool, registry, opts.FlushRetries, opts.FlushRetryBackoff, logger, m)
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		dir:      opts.Directory,
		pool:     pool,
		registry: registry,
		cancel:   cancel,
		stopped:  make(chan struct{}),
		logger:   logger,
	}
	go func() {
		defer close(e.stopped)
		worker.Run(ctx)
	}()
	logger.Info("storage engine opened",
		zap.String("directory", opts.Directory),
		zap.Int("tables", registry.Len()),
		zap.Int64("generation", pool.Generation()))
	return e, nil
}

// loadTables opens the finished tables of dir and removes leftovers of
// interrupted writes.
func loadTables(dir string, logger *zap.Logger) (*TableRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}
	registry := NewTableRegistry()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		generation, temp, ok := parseFileName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if temp {
			logger.Warn("removing unfinished table", zap.String("path", path))
			if err := os.Remove(path); err != nil {
				registry.Close()
				return nil, errors.Wrapf(err, "remove %s", path)
			}
			continue
		}
		t, err := OpenTable(path, generation)
		if err != nil {
			registry.Close()
			return nil, err
		}
		registry.Add(t)
	}
	return registry, nil
}

func (e *Engine) Upsert(key, payload []byte) error {
	return e.pool.Upsert(key, payload)
}

func (e *Engine) Remove(key []byte) error {
	return e.pool.Remove(key)
}

// Get returns the newest cell of key. A tombstone is returned as a cell
// whose value reports IsTombstone.
func (e *Engine) Get(key []byte) (domain.Cell, error) {
	if e.closed.Load() {
		return domain.Cell{}, domain.ErrStopped
	}
	cells, release := e.snapshot(key, false)
	defer release()
	if !cells.Next() {
		if err := cells.Err(); err != nil {
			return domain.Cell{}, err
		}
		return domain.Cell{}, domain.ErrNotFound
	}
	cell := cells.Cell()
	if !bytes.Equal(cell.Key(), key) {
		return domain.Cell{}, domain.ErrNotFound
	}
	return cell.Detach(), nil
}

// Range iterates live records with start <= key < end in ascending
// order. A nil end leaves the range open.
func (e *Engine) Range(start, end []byte) (domain.RecordIterator, error) {
	if e.closed.Load() {
		return nil, domain.ErrStopped
	}
	cells, release := e.snapshot(start, false)
	within := func(key []byte) bool {
		return end == nil || bytes.Compare(key, end) < 0
	}
	return newRecordIterator(cells, within, release), nil
}

// DescendingRange iterates live records with to < key <= from in
// descending order. A nil from starts at the last key, a nil to runs to
// the first.
func (e *Engine) DescendingRange(from, to []byte) (domain.RecordIterator, error) {
	if e.closed.Load() {
		return nil, domain.ErrStopped
	}
	cells, release := e.snapshot(from, true)
	within := func(key []byte) bool {
		return to == nil || bytes.Compare(key, to) > 0
	}
	return newRecordIterator(cells, within, release), nil
}

// snapshot merges the pool and the registered tables. The pool is read
// first so a table flushed in between is seen in at least one of them.
func (e *Engine) snapshot(from []byte, descending bool) (*MergeIterator, func()) {
	sources := e.pool.Iterators(from, descending)
	tables := e.registry.Snapshot()
	for _, t := range tables {
		if descending {
			sources = append(sources, t.DescendingIterator(from))
		} else {
			sources = append(sources, t.Iterator(from))
		}
	}
	var once sync.Once
	return NewMergeIterator(sources, descending), func() {
		once.Do(func() { releaseAll(tables) })
	}
}

// Compact flushes the current table and merges all on-disk tables into
// one. It returns once the worker is done.
func (e *Engine) Compact(ctx context.Context) error {
	req, err := e.pool.Compact()
	if err != nil {
		return err
	}
	return req.Wait(ctx)
}

// Close flushes the current table, waits for the worker to exit and
// unmaps every table. It is safe to call more than once.
func (e *Engine) Close() error {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	if e.closed.Load() {
		return e.closeErr
	}
	req := e.pool.Close()
	e.closeErr = req.Wait(context.Background())
	<-e.stopped
	e.cancel()
	e.closed.Store(true)
	e.registry.Close()
	e.logger.Info("storage engine closed", zap.String("directory", e.dir))
	return e.closeErr
}

func (e *Engine) DiskTables() int {
	return e.registry.Len()
}

func (e *Engine) PendingTables() int {
	return e.pool.PendingTables()
}

func (e *Engine) Generation() int64 {
	return e.pool.Generation()
}
