package service

import (
	"QuorumKV/internal/domain"

	"go.uber.org/zap"
)

type DeleteEntryService struct {
	storage domain.Storage
	logger  *zap.Logger
}

func NewDeleteEntryService(storage domain.Storage, logger *zap.Logger) *DeleteEntryService {
	return &DeleteEntryService{
		storage: storage,
		logger:  logger,
	}
}

type DeleteEntryCommand struct {
	Key []byte
}

func (s *DeleteEntryService) Execute(command DeleteEntryCommand) domain.ReplicatedResponse {
	if err := s.storage.Remove(command.Key); err != nil {
		s.logger.Error("remove failed", zap.ByteString("key", command.Key), zap.Error(err))
		return domain.NewResponse(domain.StatusInternalError)
	}
	return domain.NewResponse(domain.StatusAccepted)
}
