package service

import (
	"QuorumKV/internal/domain"
	"context"
)

// LocalReplicaService runs an operation against the storage of this node.
type LocalReplicaService struct {
	get    *GetEntryService
	save   *SaveEntryService
	delete *DeleteEntryService
}

func NewLocalReplicaService(get *GetEntryService, save *SaveEntryService,
	delete *DeleteEntryService) *LocalReplicaService {
	return &LocalReplicaService{
		get:    get,
		save:   save,
		delete: delete,
	}
}

func (s *LocalReplicaService) Execute(_ context.Context, op domain.Operation) domain.ReplicatedResponse {
	switch op.Method {
	case domain.MethodGet:
		return s.get.Execute(GetEntryQuery{Key: op.Key})
	case domain.MethodPut:
		return s.save.Execute(SaveEntryCommand{Key: op.Key, Value: op.Payload})
	case domain.MethodDelete:
		return s.delete.Execute(DeleteEntryCommand{Key: op.Key})
	}
	return domain.NewResponse(domain.StatusMethodNotAllowed)
}
