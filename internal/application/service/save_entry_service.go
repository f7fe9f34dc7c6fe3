package service

import (
	"QuorumKV/internal/domain"

	"go.uber.org/zap"
)

type SaveEntryService struct {
	storage domain.Storage
	logger  *zap.Logger
}

func NewSaveEntryService(storage domain.Storage, logger *zap.Logger) *SaveEntryService {
	return &SaveEntryService{
		storage: storage,
		logger:  logger,
	}
}

type SaveEntryCommand struct {
	Key   []byte
	Value []byte
}

func (s *SaveEntryService) Execute(command SaveEntryCommand) domain.ReplicatedResponse {
	if err := s.storage.Upsert(command.Key, command.Value); err != nil {
		s.logger.Error("upsert failed", zap.ByteString("key", command.Key), zap.Error(err))
		return domain.NewResponse(domain.StatusInternalError)
	}
	return domain.NewResponse(domain.StatusCreated)
}
