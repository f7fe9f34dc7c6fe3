package service

import (
	"QuorumKV/internal/domain"
	"context"
	"time"

	"go.uber.org/zap"
)

type CompactService struct {
	storage domain.Storage
	logger  *zap.Logger
}

func NewCompactService(storage domain.Storage, logger *zap.Logger) *CompactService {
	return &CompactService{
		storage: storage,
		logger:  logger,
	}
}

func (s *CompactService) Execute(ctx context.Context) error {
	start := time.Now()
	if err := s.storage.Compact(ctx); err != nil {
		s.logger.Error("compaction failed", zap.Error(err))
		return err
	}
	s.logger.Info("compaction finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}
