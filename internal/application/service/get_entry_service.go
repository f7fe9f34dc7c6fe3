package service

import (
	"QuorumKV/internal/domain"
	"errors"

	"go.uber.org/zap"
)

type GetEntryService struct {
	storage domain.Storage
	logger  *zap.Logger
}

func NewGetEntryService(storage domain.Storage, logger *zap.Logger) *GetEntryService {
	return &GetEntryService{
		storage: storage,
		logger:  logger,
	}
}

type GetEntryQuery struct {
	Key []byte
}

// Execute answers with the stored value, a Not-Found carrying the
// tombstone timestamp for removed keys, or a plain Not-Found.
func (s *GetEntryService) Execute(query GetEntryQuery) domain.ReplicatedResponse {
	cell, err := s.storage.Get(query.Key)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewResponse(domain.StatusNotFound)
	}
	if err != nil {
		s.logger.Error("get failed", zap.ByteString("key", query.Key), zap.Error(err))
		return domain.NewResponse(domain.StatusInternalError)
	}
	return domain.ResponseFromCell(cell)
}
