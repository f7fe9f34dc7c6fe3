package lsm_tree

import (
	"QuorumKV/internal/platform/metrics"
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// flushQueue is the side of the table pool the worker talks to.
type flushQueue interface {
	Requests() <-chan *FlushRequest
	Flushed(req *FlushRequest, persisted bool, err error)
}

// FlushWorker is the single background task that writes retired tables
// to disk and compacts the on-disk tables on request.
type FlushWorker struct {
	dir          string
	queue        flushQueue
	registry     *TableRegistry
	retries      int
	retryBackoff time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

func NewFlushWorker(dir string, queue flushQueue, registry *TableRegistry, retries int,
	retryBackoff time.Duration, logger *zap.Logger, m *metrics.Metrics) *FlushWorker {
	return &FlushWorker{
		dir:          dir,
		queue:        queue,
		registry:     registry,
		retries:      retries,
		retryBackoff: retryBackoff,
		logger:       logger.Named("flush-worker"),
		metrics:      m,
	}
}

// Run handles requests until a shutdown request has been processed or
// ctx is cancelled.
func (w *FlushWorker) Run(ctx context.Context) {
	w.logger.Debug("flush worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("flush worker cancelled")
			return
		case req := <-w.queue.Requests():
			persisted, err := w.handle(req)
			w.queue.Flushed(req, persisted, err)
			if req.Shutdown {
				w.logger.Info("flush worker stopped", zap.Int64("generation", req.Generation))
				return
			}
		}
	}
}

func (w *FlushWorker) handle(req *FlushRequest) (bool, error) {
	if err := w.flush(req); err != nil {
		w.logger.Error("flush failed, generation stays in memory",
			zap.Int64("generation", req.Generation), zap.Error(err))
		return false, err
	}
	if !req.Compaction {
		return true, nil
	}
	if err := w.compact(); err != nil {
		w.logger.Error("compaction failed", zap.Error(err))
		return true, err
	}
	return true, nil
}

func (w *FlushWorker) flush(req *FlushRequest) error {
	if req.Table.IsEmpty() {
		return nil
	}
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * w.retryBackoff)
		}
		start := time.Now()
		err = w.writeTable(req)
		w.metrics.ObserveFlush(time.Since(start), err)
		if err == nil {
			w.logger.Debug("flushed table",
				zap.Int64("generation", req.Generation),
				zap.Int64("bytes", req.Table.SizeInBytes()),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		}
		w.logger.Warn("flush attempt failed",
			zap.Int64("generation", req.Generation), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return err
}

func (w *FlushWorker) writeTable(req *FlushRequest) error {
	path, err := WriteTable(w.dir, req.Generation, req.Table.Iterator(nil))
	if err != nil {
		return err
	}
	t, err := OpenTable(path, req.Generation)
	if err != nil {
		return err
	}
	w.registry.Add(t)
	w.metrics.SetDiskTables(w.registry.Len())
	return nil
}

// compact merges every registered table into the table of the compacted
// generation and deletes the files it supersedes.
func (w *FlushWorker) compact() error {
	start := time.Now()
	tables := w.registry.Snapshot()
	defer releaseAll(tables)
	if len(tables) == 0 {
		return nil
	}

	sources := make([]Iterator, 0, len(tables))
	for _, t := range tables {
		sources = append(sources, t.Iterator(nil))
	}
	path, err := WriteTable(w.dir, CompactedGeneration, NewMergeIterator(sources, false))
	if err != nil {
		return errors.Wrap(err, "write compacted table")
	}
	compacted, err := OpenTable(path, CompactedGeneration)
	if err != nil {
		return errors.Wrap(err, "open compacted table")
	}

	for _, old := range w.registry.ReplaceAll(compacted) {
		if old.Path() != path {
			if err := os.Remove(old.Path()); err != nil && !os.IsNotExist(err) {
				w.logger.Warn("remove compacted table", zap.String("path", old.Path()), zap.Error(err))
			}
		}
		old.release()
	}

	w.metrics.ObserveCompaction(time.Since(start))
	w.metrics.SetDiskTables(1)
	w.logger.Info("compacted tables",
		zap.Int("tables", len(tables)),
		zap.Int("rows", compacted.Rows()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
